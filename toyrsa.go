// Package toyrsa implements a from-scratch RSA cryptosystem sized for
// interactive experiments: Fermat primality testing, key-pair generation,
// chained block encryption, a sign-and-encrypt protocol, and a factoring
// attack that recovers private keys from public ones.
//
// WARNING: moduli are deliberately tiny (28 to 58 bits) so that the factoring
// attack succeeds in milliseconds. DO NOT use this package to protect data.
package toyrsa

// Version of the toyrsa Go implementation.
const Version = "1.0.0"

// API summary:
//
// Key generation and encryption:
//   - rsa.GenerateKeyPair(level) - Generate a key pair for the given level
//   - rsa.Transform(value, key) - Raw RSA transform value^e mod n
//   - rsa.EncryptBlocks(blocks, pub) - Chained block encryption
//   - rsa.DecryptBlocks(ciphertexts, priv) - Chained block decryption
//
// Signed messages:
//   - sign.SignAndEncrypt(blocks, signerPriv, recipientPub) - Encrypt and sign
//   - sign.AuthenticateAndDecrypt(msg, signerPub, recipientPriv) - Verify and decrypt
//
// Attack:
//   - attack.CrackPrivateKey(pub) - Factor the modulus and rebuild the private key
//
// Parameters:
//   - core.GetParams(level) - Get parameters for a level
//   - RSA28 - 28-30 bit moduli, 4 characters per block
//   - RSA56 - 56-58 bit moduli, 8 characters per block
