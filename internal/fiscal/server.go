package fiscal

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ServerConfig configures the emission emulator.
type ServerConfig struct {
	// CertPath is the PFX certificate file to probe before "emitting".
	CertPath string
	// Passphrase unlocks the certificate.
	Passphrase string
	// Environment is reported on /status, e.g. "HOMOLOGACAO (TESTE)".
	Environment string
}

// Server emulates the fiscal authority gateway: it probes the configured
// certificate and fabricates an authorization. ProbeFunc is swappable for
// tests.
type Server struct {
	cfg       ServerConfig
	probeFunc func(path, passphrase string) error
}

// NewServer creates the emulator with the default certificate probe.
func NewServer(cfg ServerConfig) *Server {
	return &Server{cfg: cfg, probeFunc: ProbeCertificate}
}

// Routes returns the emulator's HTTP routes.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", s.handleStatus)
	r.Post("/emitir-fiscal", s.handleEmit)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "online",
		"ambiente": s.cfg.Environment,
		"mensagem": "fiscal server ready",
	})
}

func (s *Server) handleEmit(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "invalid emission payload",
		})
		return
	}

	lg.Info("emission requested",
		zap.String("total", req.Total.StringFixed(2)),
		zap.Int("items", len(req.Items)),
		zap.String("method", req.PaymentMethod),
	)

	if err := s.probeFunc(s.cfg.CertPath, s.cfg.Passphrase); err != nil {
		lg.Warn("certificate probe failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": fmt.Sprintf("fiscal server error: %s", err),
		})
		return
	}

	nfe := rand.Int64N(5000) + 1000
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"ambiente":     s.cfg.Environment,
		"nfe_number":   nfe,
		"chave_acesso": fmt.Sprintf("352302%013d", rand.Int64N(1e13)),
		"url_qrcode":   "https://www.sefaz.sp.gov.br/nfce/consulta",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
