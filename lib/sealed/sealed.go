// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts the persisted session token with age so the
// session file on disk is useless without the operator's identity file.
//
// An identity file uses age's own format: comment lines starting with
// "#" and one AGE-SECRET-KEY-1... line, so files produced by age-keygen
// work unchanged. The private key is held in a [secret.Buffer] from the
// moment it is read.
//
// Ciphertext is base64-encoded for storage in a JSON field.
package sealed

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"filippo.io/age"

	"github.com/bureau-foundation/flagdash/lib/secret"
)

// Identity is an age x25519 keypair. The caller must Close it.
type Identity struct {
	// PrivateKey is the AGE-SECRET-KEY-1... string in protected memory.
	// Never log it or pass it on a command line.
	PrivateKey *secret.Buffer

	// Recipient is the matching age1... public key.
	Recipient string
}

// Close releases the private key memory. Idempotent.
func (identity *Identity) Close() error {
	if identity.PrivateKey != nil {
		return identity.PrivateKey.Close()
	}
	return nil
}

// GenerateIdentity creates a new x25519 identity.
func GenerateIdentity() (*Identity, error) {
	generated, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	privateKey, err := secret.NewFromString(generated.String())
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}
	return &Identity{
		PrivateKey: privateKey,
		Recipient:  generated.Recipient().String(),
	}, nil
}

// LoadIdentity reads an identity file. Exactly one secret key line is
// expected; comments and blank lines are skipped.
func LoadIdentity(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	defer secret.Zero(data)

	var keyLine []byte
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if keyLine != nil {
			return nil, fmt.Errorf("identity file %s holds more than one key", path)
		}
		keyLine = line
	}
	if keyLine == nil {
		return nil, fmt.Errorf("identity file %s holds no key", path)
	}

	privateKey, err := secret.NewFromBytes(append([]byte(nil), keyLine...))
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}
	parsed, err := age.ParseX25519Identity(privateKey.String())
	if err != nil {
		privateKey.Close()
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	return &Identity{
		PrivateKey: privateKey,
		Recipient:  parsed.Recipient().String(),
	}, nil
}

// WriteIdentityFile writes identity in age-keygen's format with mode
// 0600. An existing file is never overwritten.
func WriteIdentityFile(path string, identity *Identity, now time.Time) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}
	header := fmt.Sprintf("# created: %s\n# public key: %s\n", now.UTC().Format(time.RFC3339), identity.Recipient)
	if _, err := io.WriteString(file, header); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	if _, err := file.Write(identity.PrivateKey.Bytes()); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	if _, err := io.WriteString(file, "\n"); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	return file.Close()
}

// Encrypt seals plaintext to the given age1... recipients and returns
// base64 ciphertext.
func Encrypt(plaintext []byte, recipientKeys ...string) (string, error) {
	if len(recipientKeys) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return "", fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Decrypt opens base64 ciphertext with identity. The plaintext is
// returned in protected memory; the caller must Close it.
func Decrypt(ciphertext string, identity *Identity) (*secret.Buffer, error) {
	parsed, err := age.ParseX25519Identity(identity.PrivateKey.String())
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 ciphertext: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(raw), parsed)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("decrypted plaintext is empty")
	}

	buffer, err := secret.NewFromBytes(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("protecting decrypted plaintext: %w", err)
	}
	return buffer, nil
}
