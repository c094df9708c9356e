package fiscal

import (
	"os"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/pkcs12"
)

// ProbeCertificate checks that the PFX certificate at path exists and can be
// decrypted with the given passphrase. Real SEFAZ submission (signed XML over
// SOAP) is out of scope; a decryptable certificate is what the emulator
// treats as "ready to emit".
func ProbeCertificate(path, passphrase string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read certificate %s", path)
	}
	if _, _, err := pkcs12.Decode(data, passphrase); err != nil {
		return errors.Wrap(err, "decode certificate")
	}
	return nil
}
