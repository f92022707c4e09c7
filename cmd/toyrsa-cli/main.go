// Package main provides the toyrsa-cli command line interface for toyrsa operations.
package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/attack"
	"github.com/BackendStack21/toyrsa-go/codec"
	"github.com/BackendStack21/toyrsa-go/core"
	"github.com/BackendStack21/toyrsa-go/rsa"
	"github.com/BackendStack21/toyrsa-go/sign"
	"github.com/BackendStack21/toyrsa-go/utils"
)

const (
	version = "1.0.0"
	appName = "toyrsa-cli"

	// MaxInputFileSize bounds every file the CLI reads.
	MaxInputFileSize = 16 * 1024 * 1024

	defaultSalt = "toyrsa-keygen-salt-v1"
)

// OutputFormat represents the encoding of binary fields
type OutputFormat string

const (
	FormatHex    OutputFormat = "hex"
	FormatBase64 OutputFormat = "base64"
)

// CLIConfig holds CLI configuration
type CLIConfig struct {
	Level        toyrsa.Level
	OutputFormat OutputFormat
	OutputFile   string
	InputFile    string
	Verbose      bool
	Timing       bool
}

// KeyPairExport is the key file layout. Public key files omit the private
// exponent and the tag.
type KeyPairExport struct {
	Level           string `json:"level"`
	Modulus         int64  `json:"modulus"`
	PublicExponent  int64  `json:"public_exponent"`
	PrivateExponent *int64 `json:"private_exponent,omitempty"`
	CreatedAt       string `json:"created_at"`
	KeyTag          string `json:"key_tag,omitempty"` // Corruption check over the private part
	Format          string `json:"format,omitempty"`  // Encoding of KeyTag
}

// CiphertextExport holds chained ciphertext blocks.
type CiphertextExport struct {
	Level  string  `json:"level"`
	Blocks []int64 `json:"blocks"`
}

// SignedExport holds an encoded signed message.
type SignedExport struct {
	Level  string `json:"level"`
	Signed string `json:"signed"`
	Format string `json:"format,omitempty"`
}

// CrackExport reports a recovered private key.
type CrackExport struct {
	attack.Recovery
	Fingerprint string  `json:"fingerprint"`
	ElapsedMs   float64 `json:"elapsed_ms"`
}

func main() {
	loadEnv()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if hasFlag(args, "--help", "-h") {
		printUsage()
		return
	}

	switch command {
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("toyrsa library version %s\n", toyrsa.Version)
	case "keygen":
		cmdKeygen(args)
	case "pubkey":
		cmdPubkey(args)
	case "encrypt":
		cmdEncrypt(args)
	case "decrypt":
		cmdDecrypt(args)
	case "sign":
		cmdSign(args)
	case "verify":
		cmdVerify(args)
	case "crack":
		cmdCrack(args)
	case "demo":
		cmdDemo(args)
	case "benchmark":
		handleBenchmark(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - toyrsa teaching RSA CLI

USAGE:
    %s <COMMAND> [OPTIONS]

COMMANDS:
    keygen      Generate a key pair
    pubkey      Extract the public part of a key file
    encrypt     Encrypt a message with a public key
    decrypt     Decrypt a ciphertext with a private key
    sign        Encrypt for a recipient and sign with your key
    verify      Authenticate and decrypt a signed message
    crack       Recover a private key from a public key
    demo        Run the full alice/bob walkthrough
    benchmark   Run performance benchmarks
    version     Show version information
    help        Show this help message

OPTIONS:
    -l, --level <RSA-28|RSA-56>   Parameter set (default RSA-28, env TOYRSA_LEVEL)
    -f, --format <base64|hex>     Encoding of binary fields (default base64, env TOYRSA_FORMAT)
    -o, --output <file>           Write output to a file instead of stdout
    -i, --input <file>            Read the message from a file
    -m, --message <text>          Message text (otherwise --input or stdin)
    -k, --key <file>              Key file
    -v, --verbose                 Print details to stderr
    -t, --timing                  Print elapsed time to stderr

EXAMPLES:
    # Generate a key pair
    %s keygen --output alice.json

    # Reproducible key pair from a passphrase
    %s keygen --passphrase "correct horse" --output alice.json

    # Encrypt and decrypt
    %s pubkey --key bob.json --output bob.pub.json
    %s encrypt --key bob.pub.json --message "HELLO" --output ct.json
    %s decrypt --key bob.json --ciphertext ct.json

    # Sign for bob, then verify as bob
    %s sign --key alice.json --recipient bob.pub.json --message "HELLO" --output msg.json
    %s verify --key bob.json --signer alice.pub.json --signed msg.json

    # Recover bob's private key from his public key
    %s crack --key bob.pub.json --timeout 30s

WARNING: toyrsa keys can be factored in milliseconds. Do not protect real data with them.
`, appName, appName, appName, appName, appName, appName, appName, appName, appName, appName)
}

// loadEnv reads defaults from a .env file in the working directory, if any.
func loadEnv() {
	path := os.Getenv("TOYRSA_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}
}

// ============================================================================
// Key Commands
// ============================================================================

func cmdKeygen(args []string) {
	config := parseConfig(args)
	params, err := core.GetParams(config.Level)
	if err != nil {
		fatalf("Error: %v", err)
	}

	var kp *toyrsa.KeyPair
	elapsed, err := utils.Timed(func() error {
		var genErr error
		if passphrase := getArg(args, "--passphrase", "-p"); passphrase != "" {
			salt := getArg(args, "--salt", "")
			if salt == "" {
				salt = defaultSalt
			}
			seed := utils.SeedFromPassphrase(passphrase, []byte(salt))
			kp, genErr = rsa.GenerateKeyPairFromSeed(params, seed)
			utils.Zeroize(seed)
		} else {
			kp, genErr = rsa.GenerateKeyPair(config.Level)
		}
		return genErr
	})
	if err != nil {
		fatalf("Error generating key pair: %v", err)
	}

	if config.Timing {
		fmt.Fprintf(os.Stderr, "Key generation took: %.3f ms\n", utils.Milliseconds(elapsed))
	}

	export, err := exportKeyPair(kp, config.OutputFormat)
	if err != nil {
		fatalf("Error exporting key pair: %v", err)
	}
	writeJSON(export, config.OutputFile)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Generated %s key pair\n", kp.Level)
		fmt.Fprintf(os.Stderr, "Modulus: %d (%d bits)\n", kp.Public.Modulus, bitLen(kp.Public.Modulus))
		fmt.Fprintf(os.Stderr, "Fingerprint: %s\n", rsa.Fingerprint(kp.Public))
	}
}

func cmdPubkey(args []string) {
	config := parseConfig(args)
	export, err := loadKeyFile(requireArg(args, "--key", "-k"))
	if err != nil {
		fatalf("Error loading key: %v", err)
	}

	pub := KeyPairExport{
		Level:          export.Level,
		Modulus:        export.Modulus,
		PublicExponent: export.PublicExponent,
		CreatedAt:      export.CreatedAt,
	}
	writeJSON(pub, config.OutputFile)
}

// ============================================================================
// Encryption Commands
// ============================================================================

func cmdEncrypt(args []string) {
	config := parseConfig(args)
	export, err := loadKeyFile(requireArg(args, "--key", "-k"))
	if err != nil {
		fatalf("Error loading key: %v", err)
	}
	params, err := core.GetParams(toyrsa.Level(export.Level))
	if err != nil {
		fatalf("Error: %v", err)
	}

	message := readMessage(args, config)

	var blocks []int64
	elapsed, err := utils.Timed(func() error {
		var encErr error
		blocks, encErr = rsa.EncryptString(message, publicKey(export), params)
		return encErr
	})
	if err != nil {
		fatalf("Error encrypting: %v", err)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Encryption took: %.3f ms\n", utils.Milliseconds(elapsed))
	}

	writeJSON(CiphertextExport{Level: export.Level, Blocks: blocks}, config.OutputFile)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Encrypted %d characters into %d blocks\n", len(message), len(blocks))
	}
}

func cmdDecrypt(args []string) {
	config := parseConfig(args)
	export, err := loadKeyFile(requireArg(args, "--key", "-k"))
	if err != nil {
		fatalf("Error loading key: %v", err)
	}
	priv, err := privateKey(export)
	if err != nil {
		fatalf("Error: %v", err)
	}

	var ct CiphertextExport
	if err := readJSONFile(requireArg(args, "--ciphertext", "-c"), &ct); err != nil {
		fatalf("Error loading ciphertext: %v", err)
	}
	if ct.Level != export.Level {
		fatalf("Error: ciphertext level %s does not match key level %s", ct.Level, export.Level)
	}
	if err := utils.CheckLength(len(ct.Blocks), utils.MaxBlockCount); err != nil {
		fatalf("Error: ciphertext: %v", err)
	}
	params, err := core.GetParams(toyrsa.Level(ct.Level))
	if err != nil {
		fatalf("Error: %v", err)
	}

	var plaintext string
	elapsed, err := utils.Timed(func() error {
		var decErr error
		plaintext, decErr = rsa.DecryptString(ct.Blocks, priv, params)
		return decErr
	})
	if err != nil {
		fatalf("Error decrypting: %v", err)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Decryption took: %.3f ms\n", utils.Milliseconds(elapsed))
	}

	writeOutput([]byte(plaintext), config.OutputFile)
}

// ============================================================================
// Signing Commands
// ============================================================================

func cmdSign(args []string) {
	config := parseConfig(args)
	signer, err := loadKeyFile(requireArg(args, "--key", "-k"))
	if err != nil {
		fatalf("Error loading signer key: %v", err)
	}
	signerPriv, err := privateKey(signer)
	if err != nil {
		fatalf("Error: %v", err)
	}
	recipient, err := loadKeyFile(requireArg(args, "--recipient", "-r"))
	if err != nil {
		fatalf("Error loading recipient key: %v", err)
	}
	params, err := core.GetParams(toyrsa.Level(recipient.Level))
	if err != nil {
		fatalf("Error: %v", err)
	}

	message := readMessage(args, config)

	var msg *toyrsa.SignedMessage
	elapsed, err := utils.Timed(func() error {
		blocks, encErr := codec.Encode(message, params.BlockChars)
		if encErr != nil {
			return encErr
		}
		msg, encErr = sign.SignAndEncrypt(blocks, signerPriv, publicKey(recipient))
		return encErr
	})
	if err != nil {
		fatalf("Error signing: %v", err)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Signing took: %.3f ms\n", utils.Milliseconds(elapsed))
	}

	export := SignedExport{
		Level:  recipient.Level,
		Signed: encodeBytes(sign.SerializeSignedMessage(msg), config.OutputFormat),
		Format: string(config.OutputFormat),
	}
	writeJSON(export, config.OutputFile)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Signed %d blocks, digest %d\n", len(msg.Ciphertext), sign.Digest(msg.Ciphertext))
	}
}

func cmdVerify(args []string) {
	config := parseConfig(args)
	recipient, err := loadKeyFile(requireArg(args, "--key", "-k"))
	if err != nil {
		fatalf("Error loading key: %v", err)
	}
	recipientPriv, err := privateKey(recipient)
	if err != nil {
		fatalf("Error: %v", err)
	}
	signer, err := loadKeyFile(requireArg(args, "--signer", "-s"))
	if err != nil {
		fatalf("Error loading signer key: %v", err)
	}

	var export SignedExport
	if err := readJSONFile(requireArg(args, "--signed", ""), &export); err != nil {
		fatalf("Error loading signed message: %v", err)
	}
	if export.Level != recipient.Level {
		fatalf("Error: message level %s does not match key level %s", export.Level, recipient.Level)
	}
	params, err := core.GetParams(toyrsa.Level(export.Level))
	if err != nil {
		fatalf("Error: %v", err)
	}
	data, err := decodeString(export.Signed, OutputFormat(export.Format))
	if err != nil {
		fatalf("Error decoding signed message: %v", err)
	}
	msg, err := sign.DeserializeSignedMessage(data)
	if err != nil {
		fatalf("Error: %v", err)
	}

	plain, ok := sign.AuthenticateAndDecrypt(msg, publicKey(signer), recipientPriv)
	if !ok {
		fmt.Fprintln(os.Stderr, "Verification FAILED: signature does not match ciphertext")
		os.Exit(1)
	}
	text, err := codec.Decode(plain, params.BlockChars)
	if err != nil {
		fatalf("Error decoding plaintext: %v", err)
	}

	if config.Verbose {
		fmt.Fprintln(os.Stderr, "Signature valid")
	}
	writeOutput([]byte(text), config.OutputFile)
}

// ============================================================================
// Attack Command
// ============================================================================

func cmdCrack(args []string) {
	config := parseConfig(args)
	export, err := loadKeyFile(requireArg(args, "--key", "-k"))
	if err != nil {
		fatalf("Error loading key: %v", err)
	}

	timeout := 5 * time.Minute
	if s := getArg(args, "--timeout", ""); s != "" {
		timeout, err = time.ParseDuration(s)
		if err != nil {
			fatalf("Error: invalid timeout '%s': %v", s, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var recovery *attack.Recovery
	elapsed, err := utils.Timed(func() error {
		var crackErr error
		recovery, crackErr = attack.Crack(ctx, publicKey(export))
		return crackErr
	})
	if errors.Is(err, context.DeadlineExceeded) {
		fatalf("Error: no factor found within %v", timeout)
	}
	if err != nil {
		fatalf("Error cracking key: %v", err)
	}

	writeJSON(CrackExport{
		Recovery:    *recovery,
		Fingerprint: rsa.Fingerprint(recovery.Key),
		ElapsedMs:   utils.Milliseconds(elapsed),
	}, config.OutputFile)

	if config.Verbose && export.PrivateExponent != nil {
		match := *export.PrivateExponent == recovery.Key.Exponent
		fmt.Fprintf(os.Stderr, "Recovered exponent matches key file: %v\n", match)
	}
}

// ============================================================================
// Key File Helpers
// ============================================================================

func exportKeyPair(kp *toyrsa.KeyPair, format OutputFormat) (*KeyPairExport, error) {
	tag, err := utils.KeyTag(rsa.SerializeKey(kp.Public), rsa.SerializeKey(kp.Private))
	if err != nil {
		return nil, err
	}
	d := kp.Private.Exponent
	return &KeyPairExport{
		Level:           string(kp.Level),
		Modulus:         kp.Public.Modulus,
		PublicExponent:  kp.Public.Exponent,
		PrivateExponent: &d,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		KeyTag:          encodeBytes(tag, format),
		Format:          string(format),
	}, nil
}

// loadKeyFile reads and checks a key file. A present key tag must match.
func loadKeyFile(filename string) (*KeyPairExport, error) {
	var export KeyPairExport
	if err := readJSONFile(filename, &export); err != nil {
		return nil, err
	}
	if _, err := core.GetParams(toyrsa.Level(export.Level)); err != nil {
		return nil, err
	}
	if err := rsa.ValidateKey(publicKey(&export)); err != nil {
		return nil, err
	}

	if export.PrivateExponent != nil && export.KeyTag != "" {
		want, err := decodeString(export.KeyTag, OutputFormat(export.Format))
		if err != nil {
			return nil, fmt.Errorf("invalid key tag: %w", err)
		}
		priv := toyrsa.Key{Modulus: export.Modulus, Exponent: *export.PrivateExponent}
		got, err := utils.KeyTag(rsa.SerializeKey(publicKey(&export)), rsa.SerializeKey(priv))
		if err != nil {
			return nil, err
		}
		if !utils.ConstantTimeEqual(got, want) {
			return nil, errors.New("key tag mismatch: key file is corrupted")
		}
	}
	return &export, nil
}

func publicKey(export *KeyPairExport) toyrsa.Key {
	return toyrsa.Key{Modulus: export.Modulus, Exponent: export.PublicExponent}
}

func privateKey(export *KeyPairExport) (toyrsa.Key, error) {
	if export.PrivateExponent == nil {
		return toyrsa.Key{}, errors.New("key file has no private exponent")
	}
	key := toyrsa.Key{Modulus: export.Modulus, Exponent: *export.PrivateExponent}
	return key, rsa.ValidateKey(key)
}

// ============================================================================
// Utility Functions
// ============================================================================

func parseConfig(args []string) CLIConfig {
	config := CLIConfig{
		Level:        core.DefaultLevel,
		OutputFormat: FormatBase64,
	}

	level := getArg(args, "--level", "-l")
	if level == "" {
		level = os.Getenv("TOYRSA_LEVEL")
	}
	switch strings.ToUpper(level) {
	case "28", "RSA-28", "RSA28":
		config.Level = toyrsa.RSA28
	case "56", "RSA-56", "RSA56":
		config.Level = toyrsa.RSA56
	case "":
		// No level specified, use default
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid level '%s'. Must be one of: RSA-28, RSA-56\n", level)
		os.Exit(1)
	}

	format := getArg(args, "--format", "-f")
	if format == "" {
		format = os.Getenv("TOYRSA_FORMAT")
	}
	switch format {
	case "hex":
		config.OutputFormat = FormatHex
	case "base64":
		config.OutputFormat = FormatBase64
	case "":
		// No format specified, use default
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid format '%s'. Must be one of: hex, base64\n", format)
		os.Exit(1)
	}

	config.OutputFile = getArg(args, "--output", "-o")
	config.InputFile = getArg(args, "--input", "-i")
	config.Verbose = hasFlag(args, "--verbose", "-v")
	config.Timing = hasFlag(args, "--timing", "-t")

	return config
}

func getArg(args []string, long, short string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == long || (short != "" && args[i] == short) {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, long, short string) bool {
	for _, arg := range args {
		if arg == long || (short != "" && arg == short) {
			return true
		}
	}
	return false
}

func requireArg(args []string, long, short string) string {
	v := getArg(args, long, short)
	if v == "" {
		fatalf("Error: %s is required", long)
	}
	return v
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// readMessage takes the message from --message, --input or stdin, in that order.
func readMessage(args []string, config CLIConfig) string {
	if m := getArg(args, "--message", "-m"); m != "" {
		return m
	}

	var data []byte
	var err error
	if config.InputFile != "" {
		data, err = readFileLimited(config.InputFile)
	} else {
		data, err = io.ReadAll(io.LimitReader(os.Stdin, utils.MaxMessageSize+1))
	}
	if err != nil {
		fatalf("Error reading message: %v", err)
	}
	if err := utils.CheckLength(len(data), utils.MaxMessageSize); err != nil {
		fatalf("Error: message: %v", err)
	}
	return strings.TrimRight(string(data), "\r\n")
}

func readFileLimited(filename string) ([]byte, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxInputFileSize {
		return nil, fmt.Errorf("input file too large: %d > %d bytes", info.Size(), MaxInputFileSize)
	}
	return os.ReadFile(filename)
}

func readJSONFile(filename string, v interface{}) error {
	data, err := readFileLimited(filename)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", filename, err)
	}
	return nil
}

func encodeBytes(data []byte, format OutputFormat) string {
	switch format {
	case FormatHex:
		return hex.EncodeToString(data)
	default:
		return base64.StdEncoding.EncodeToString(data)
	}
}

// decodeString decodes s with the format recorded next to it. Files written
// before the format was recorded keep the old hex-then-base64 guess.
func decodeString(s string, format OutputFormat) ([]byte, error) {
	switch format {
	case FormatHex:
		return hex.DecodeString(s)
	case FormatBase64:
		return base64.StdEncoding.DecodeString(s)
	case "":
		if data, err := hex.DecodeString(s); err == nil {
			return data, nil
		}
		if data, err := base64.StdEncoding.DecodeString(s); err == nil {
			return data, nil
		}
		return nil, fmt.Errorf("unable to decode string")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func writeJSON(v interface{}, filename string) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("Error marshaling output: %v", err)
	}
	writeOutput(output, filename)
}

func writeOutput(data []byte, filename string) {
	if filename != "" {
		// Key material is written owner-only.
		f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			fatalf("Error creating output file: %v", err)
		}
		defer f.Close()

		if _, err := f.Write(data); err != nil {
			fatalf("Error writing output file: %v", err)
		}

		if err := os.Chmod(filename, 0600); err != nil {
			fatalf("Error setting file permissions: %v", err)
		}
	} else {
		fmt.Println(string(data))
	}
}

func bitLen(n int64) int {
	return bits.Len64(uint64(n))
}
