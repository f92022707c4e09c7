package main_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Helper types for unmarshaling JSON responses
type keyFile struct {
	Level           string `json:"level"`
	Modulus         int64  `json:"modulus"`
	PublicExponent  int64  `json:"public_exponent"`
	PrivateExponent *int64 `json:"private_exponent"`
	CreatedAt       string `json:"created_at"`
	KeyTag          string `json:"key_tag"`
	Format          string `json:"format"`
}

type ciphertextFile struct {
	Level  string  `json:"level"`
	Blocks []int64 `json:"blocks"`
}

type signedFile struct {
	Level  string `json:"level"`
	Signed string `json:"signed"`
	Format string `json:"format"`
}

type crackResult struct {
	P          int64 `json:"p"`
	Q          int64 `json:"q"`
	Totient    int64 `json:"totient"`
	Divisions  int64 `json:"divisions"`
	PrivateKey struct {
		Modulus  int64 `json:"modulus"`
		Exponent int64 `json:"exponent"`
	} `json:"private_key"`
}

// runCLIEnv executes the toyrsa-cli via `go run ./cmd/toyrsa-cli` from the repository root.
func runCLIEnv(t *testing.T, timeout time.Duration, env []string, stdin string, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmdArgs := append([]string{"run", "./cmd/toyrsa-cli"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	// ensure we run from repo root (cmd/toyrsa-cli tests are executed from that directory)
	cmd.Dir = filepath.Join("..", "..")
	cmd.Env = append(os.Environ(), env...)
	if stdin != "" {
		cmd.Stdin = bytes.NewReader([]byte(stdin))
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func runCLI(t *testing.T, timeout time.Duration, args ...string) (string, error) {
	t.Helper()
	return runCLIEnv(t, timeout, nil, "", args...)
}

func readJSON(t *testing.T, filename string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to parse %s: %v", filename, err)
	}
}

// keygen writes a passphrase-derived key pair and its public half.
func keygen(t *testing.T, dir, name, passphrase string) (kpFile, pubFile string) {
	t.Helper()
	kpFile = filepath.Join(dir, name+".json")
	pubFile = filepath.Join(dir, name+".pub.json")
	if out, err := runCLI(t, 60*time.Second, "keygen", "--passphrase", passphrase, "--output", kpFile); err != nil {
		t.Fatalf("keygen failed: %v, out: %s", err, out)
	}
	if out, err := runCLI(t, 30*time.Second, "pubkey", "--key", kpFile, "--output", pubFile); err != nil {
		t.Fatalf("pubkey failed: %v, out: %s", err, out)
	}
	return kpFile, pubFile
}

func TestHelpAndVersion(t *testing.T) {
	stdout, err := runCLI(t, 30*time.Second, "help")
	if err != nil {
		t.Fatalf("help command failed: %v, out: %s", err, stdout)
	}
	if !strings.Contains(stdout, "toyrsa-cli - toyrsa") {
		t.Fatalf("help output does not contain expected header, got: %s", stdout)
	}

	stdout, err = runCLI(t, 30*time.Second, "version")
	if err != nil {
		t.Fatalf("version command failed: %v, out: %s", err, stdout)
	}
	if !strings.Contains(stdout, "version") {
		t.Fatalf("version output unexpected: %s", stdout)
	}
}

func TestKeygenRandom(t *testing.T) {
	dir := t.TempDir()
	kpFile := filepath.Join(dir, "kp.json")
	if out, err := runCLI(t, 30*time.Second, "keygen", "--output", kpFile, "--verbose", "--timing"); err != nil {
		t.Fatalf("keygen failed: %v, out: %s", err, out)
	}

	var kf keyFile
	readJSON(t, kpFile, &kf)
	if kf.Level != "RSA-28" {
		t.Errorf("level = %q, want RSA-28", kf.Level)
	}
	if kf.Modulus <= 1<<28 || kf.PrivateExponent == nil || kf.KeyTag == "" {
		t.Errorf("incomplete key file: %+v", kf)
	}
	if _, err := base64.StdEncoding.DecodeString(kf.KeyTag); err != nil {
		t.Errorf("key tag is not base64: %v", err)
	}

	info, err := os.Stat(kpFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("key file permissions = %o, want 600", info.Mode().Perm())
	}
}

func TestKeygenPassphrase(t *testing.T) {
	dir := t.TempDir()
	kpFile, pubFile := keygen(t, dir, "alice", "alice passphrase")

	var kf keyFile
	readJSON(t, kpFile, &kf)
	if kf.Modulus != 649673779 || kf.PublicExponent != 19819865 {
		t.Errorf("passphrase key = (%d, %d), want (649673779, 19819865)", kf.Modulus, kf.PublicExponent)
	}
	if kf.PrivateExponent == nil || *kf.PrivateExponent != 293253009 {
		t.Errorf("private exponent = %v, want 293253009", kf.PrivateExponent)
	}

	var pub keyFile
	readJSON(t, pubFile, &pub)
	if pub.PrivateExponent != nil || pub.KeyTag != "" {
		t.Errorf("public key file leaks private fields: %+v", pub)
	}
	if pub.Modulus != kf.Modulus || pub.PublicExponent != kf.PublicExponent {
		t.Errorf("public key file does not match key pair")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	dir := t.TempDir()
	kpFile, pubFile := keygen(t, dir, "bob", "bob passphrase")
	ctFile := filepath.Join(dir, "ct.json")
	message := "Hello toyrsa"

	if out, err := runCLI(t, 30*time.Second, "encrypt", "--key", pubFile, "--message", message, "--output", ctFile); err != nil {
		t.Fatalf("encrypt failed: %v, out: %s", err, out)
	}

	var ct ciphertextFile
	readJSON(t, ctFile, &ct)
	if ct.Level != "RSA-28" || len(ct.Blocks) != 3 {
		t.Errorf("unexpected ciphertext file: %+v", ct)
	}

	stdout, err := runCLI(t, 30*time.Second, "decrypt", "--key", kpFile, "--ciphertext", ctFile)
	if err != nil {
		t.Fatalf("decrypt failed: %v, out: %s", err, stdout)
	}
	if out := strings.TrimSpace(stdout); out != message {
		t.Fatalf("decrypted message mismatch: expected %q got %q", message, out)
	}
}

func TestEncryptStdinMessage(t *testing.T) {
	dir := t.TempDir()
	kpFile, pubFile := keygen(t, dir, "bob", "bob passphrase")
	ctFile := filepath.Join(dir, "ct.json")
	message := "from standard input"

	if out, err := runCLIEnv(t, 30*time.Second, nil, message+"\n", "encrypt", "--key", pubFile, "--output", ctFile); err != nil {
		t.Fatalf("encrypt failed: %v, out: %s", err, out)
	}
	stdout, err := runCLI(t, 30*time.Second, "decrypt", "--key", kpFile, "--ciphertext", ctFile)
	if err != nil {
		t.Fatalf("decrypt failed: %v, out: %s", err, stdout)
	}
	if out := strings.TrimSpace(stdout); out != message {
		t.Fatalf("decrypted message mismatch: expected %q got %q", message, out)
	}
}

func TestEncryptFileInput(t *testing.T) {
	dir := t.TempDir()
	kpFile, pubFile := keygen(t, dir, "bob", "bob passphrase")
	msgFile := filepath.Join(dir, "msg.txt")
	ctFile := filepath.Join(dir, "ct.json")
	message := "from a file"
	if err := os.WriteFile(msgFile, []byte(message), 0600); err != nil {
		t.Fatal(err)
	}

	if out, err := runCLI(t, 30*time.Second, "encrypt", "--key", pubFile, "--input", msgFile, "--output", ctFile); err != nil {
		t.Fatalf("encrypt failed: %v, out: %s", err, out)
	}
	stdout, err := runCLI(t, 30*time.Second, "decrypt", "--key", kpFile, "--ciphertext", ctFile)
	if err != nil {
		t.Fatalf("decrypt failed: %v, out: %s", err, stdout)
	}
	if out := strings.TrimSpace(stdout); out != message {
		t.Fatalf("decrypted message mismatch: expected %q got %q", message, out)
	}
}

func TestDecryptWithPublicKeyFails(t *testing.T) {
	dir := t.TempDir()
	_, pubFile := keygen(t, dir, "bob", "bob passphrase")
	ctFile := filepath.Join(dir, "ct.json")
	if out, err := runCLI(t, 30*time.Second, "encrypt", "--key", pubFile, "--message", "x", "--output", ctFile); err != nil {
		t.Fatalf("encrypt failed: %v, out: %s", err, out)
	}

	out, err := runCLI(t, 30*time.Second, "decrypt", "--key", pubFile, "--ciphertext", ctFile)
	if err == nil {
		t.Fatalf("decrypt with public key file should fail, out: %s", out)
	}
	if !strings.Contains(out, "no private exponent") {
		t.Errorf("unexpected error output: %s", out)
	}
}

func TestSignVerify(t *testing.T) {
	for _, format := range []string{"base64", "hex"} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			aliceFile, alicePub := keygen(t, dir, "alice", "alice passphrase")
			bobFile, bobPub := keygen(t, dir, "bob", "bob passphrase")
			signedFileName := filepath.Join(dir, "signed.json")
			message := "A signed message"

			if out, err := runCLI(t, 30*time.Second, "sign", "--key", aliceFile, "--recipient", bobPub,
				"--message", message, "--format", format, "--output", signedFileName); err != nil {
				t.Fatalf("sign failed: %v, out: %s", err, out)
			}
			var sf signedFile
			readJSON(t, signedFileName, &sf)
			if sf.Format != format {
				t.Fatalf("signed file records format %q, want %q", sf.Format, format)
			}

			stdout, err := runCLI(t, 30*time.Second, "verify", "--key", bobFile, "--signer", alicePub, "--signed", signedFileName)
			if err != nil {
				t.Fatalf("verify failed: %v, out: %s", err, stdout)
			}
			if out := strings.TrimSpace(stdout); out != message {
				t.Fatalf("verified message mismatch: expected %q got %q", message, out)
			}

			// Wrong signer
			out, err := runCLI(t, 30*time.Second, "verify", "--key", bobFile, "--signer", bobPub, "--signed", signedFileName)
			if err == nil || !strings.Contains(out, "Verification FAILED") {
				t.Fatalf("verify with wrong signer should fail, out: %s", out)
			}
		})
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	dir := t.TempDir()
	aliceFile, alicePub := keygen(t, dir, "alice", "alice passphrase")
	bobFile, bobPub := keygen(t, dir, "bob", "bob passphrase")
	signedFileName := filepath.Join(dir, "signed.json")

	if out, err := runCLI(t, 30*time.Second, "sign", "--key", aliceFile, "--recipient", bobPub,
		"--message", "pay bob 10", "--output", signedFileName); err != nil {
		t.Fatalf("sign failed: %v, out: %s", err, out)
	}

	var sf signedFile
	readJSON(t, signedFileName, &sf)
	data, err := base64.StdEncoding.DecodeString(sf.Signed)
	if err != nil {
		t.Fatal(err)
	}
	// The signature is the trailing 8 bytes
	data[len(data)-8] ^= 1
	sf.Signed = base64.StdEncoding.EncodeToString(data)
	raw, _ := json.Marshal(sf)
	if err := os.WriteFile(signedFileName, raw, 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, 30*time.Second, "verify", "--key", bobFile, "--signer", alicePub, "--signed", signedFileName)
	if err == nil {
		t.Fatalf("verify should fail for tampered signature, out: %s", out)
	}
	if !strings.Contains(out, "Verification FAILED") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestCorruptedKeyFile(t *testing.T) {
	dir := t.TempDir()
	kpFile, pubFile := keygen(t, dir, "bob", "bob passphrase")
	ctFile := filepath.Join(dir, "ct.json")
	if out, err := runCLI(t, 30*time.Second, "encrypt", "--key", pubFile, "--message", "x", "--output", ctFile); err != nil {
		t.Fatalf("encrypt failed: %v, out: %s", err, out)
	}

	var kf keyFile
	readJSON(t, kpFile, &kf)
	d := *kf.PrivateExponent + 2
	kf.PrivateExponent = &d
	raw, _ := json.Marshal(kf)
	if err := os.WriteFile(kpFile, raw, 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, 30*time.Second, "decrypt", "--key", kpFile, "--ciphertext", ctFile)
	if err == nil || !strings.Contains(out, "key tag mismatch") {
		t.Fatalf("decrypt with corrupted key should fail with tag mismatch, out: %s", out)
	}
}

func TestCrack(t *testing.T) {
	dir := t.TempDir()
	kpFile, pubFile := keygen(t, dir, "bob", "bob passphrase")
	resultFile := filepath.Join(dir, "crack.json")

	if out, err := runCLI(t, 60*time.Second, "crack", "--key", pubFile, "--timeout", "30s", "--output", resultFile); err != nil {
		t.Fatalf("crack failed: %v, out: %s", err, out)
	}

	var kf keyFile
	readJSON(t, kpFile, &kf)
	var res crackResult
	readJSON(t, resultFile, &res)

	if res.P*res.Q != kf.Modulus {
		t.Errorf("factors %d * %d do not give modulus %d", res.P, res.Q, kf.Modulus)
	}
	if res.PrivateKey.Exponent != *kf.PrivateExponent {
		t.Errorf("recovered exponent %d, want %d", res.PrivateKey.Exponent, *kf.PrivateExponent)
	}
	if res.Divisions <= 0 {
		t.Errorf("divisions = %d", res.Divisions)
	}
}

func TestDemo(t *testing.T) {
	stdout, err := runCLI(t, 60*time.Second, "demo", "--passphrase", "demo passphrase")
	if err != nil {
		t.Fatalf("demo failed: %v, out: %s", err, stdout)
	}
	for _, want := range []string{"bob decrypts", "tampered block rejected", "recovered exponent matches"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("demo output missing %q: %s", want, stdout)
		}
	}
	if strings.Contains(stdout, "FAILED") {
		t.Errorf("demo reported a failure: %s", stdout)
	}
}

func TestEnvLevel(t *testing.T) {
	dir := t.TempDir()
	kpFile := filepath.Join(dir, "kp.json")
	out, err := runCLIEnv(t, 30*time.Second, []string{"TOYRSA_LEVEL=RSA-56"}, "", "keygen", "--output", kpFile)
	if err != nil {
		t.Fatalf("keygen failed: %v, out: %s", err, out)
	}
	var kf keyFile
	readJSON(t, kpFile, &kf)
	if kf.Level != "RSA-56" || kf.Modulus <= 1<<56 {
		t.Errorf("TOYRSA_LEVEL not applied: %+v", kf)
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "toyrsa.env")
	if err := os.WriteFile(envFile, []byte("TOYRSA_LEVEL=56\nTOYRSA_FORMAT=hex\n"), 0600); err != nil {
		t.Fatal(err)
	}
	kpFile := filepath.Join(dir, "kp.json")

	out, err := runCLIEnv(t, 30*time.Second, []string{"TOYRSA_ENV_FILE=" + envFile}, "", "keygen", "--output", kpFile)
	if err != nil {
		t.Fatalf("keygen failed: %v, out: %s", err, out)
	}
	var kf keyFile
	readJSON(t, kpFile, &kf)
	if kf.Level != "RSA-56" {
		t.Errorf("level from .env not applied: %q", kf.Level)
	}
	// 32-byte tag in hex
	if len(kf.KeyTag) != 64 || kf.Format != "hex" {
		t.Errorf("format from .env not applied: key tag %q, format %q", kf.KeyTag, kf.Format)
	}
}

func TestBenchmarkCommand(t *testing.T) {
	stdout, err := runCLI(t, 60*time.Second, "benchmark", "--iterations", "1")
	if err != nil {
		t.Fatalf("benchmark failed: %v, out: %s", err, stdout)
	}
	if !strings.Contains(stdout, "Benchmark complete!") {
		t.Errorf("unexpected benchmark output: %s", stdout)
	}
}

func TestMissingRequiredFlag(t *testing.T) {
	out, err := runCLI(t, 30*time.Second, "encrypt", "--message", "x")
	if err == nil {
		t.Fatalf("encrypt without --key should fail, out: %s", out)
	}
	if !strings.Contains(out, "--key is required") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestInvalidLevel(t *testing.T) {
	out, err := runCLI(t, 30*time.Second, "keygen", "--level", "2048")
	if err == nil {
		t.Fatalf("keygen with invalid level should fail, out: %s", out)
	}
	if !strings.Contains(out, "invalid level") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	out, err := runCLI(t, 30*time.Second, "factorize")
	if err == nil || !strings.Contains(out, "Unknown command") {
		t.Fatalf("unknown command should fail, out: %s", out)
	}
}
