// Package grantkey generates Ed25519 keypairs for operation grant signing.
package grantkey

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Run generates a keypair and writes env assignments to out.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}

	pub, priv, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}
	if _, err := fmt.Fprintf(out, "THERAS_BOOST_GRANT_PUBLIC_KEY=%s\n", base64.RawStdEncoding.EncodeToString(pub)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "THERAS_BOOST_GRANT_PRIVATE_KEY=%s\n", base64.RawStdEncoding.EncodeToString(priv))
	return err
}
