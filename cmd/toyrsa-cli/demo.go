package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/attack"
	"github.com/BackendStack21/toyrsa-go/codec"
	"github.com/BackendStack21/toyrsa-go/core"
	"github.com/BackendStack21/toyrsa-go/rsa"
	"github.com/BackendStack21/toyrsa-go/sign"
	"github.com/BackendStack21/toyrsa-go/utils"
)

const (
	demoDomainAlice = "toyrsa-demo-alice"
	demoDomainBob   = "toyrsa-demo-bob"

	benchSeedAlice = "toyrsa-cli benchmark seed: alice"
	benchSeedBob   = "toyrsa-cli benchmark seed: robert"
)

// demoKeys returns key pairs for alice and bob, derived from a passphrase
// when one is given.
func demoKeys(params toyrsa.Params, passphrase, salt string) (alice, bob *toyrsa.KeyPair, err error) {
	if passphrase == "" {
		if alice, err = rsa.GenerateKeyPair(params.Level); err != nil {
			return nil, nil, err
		}
		bob, err = rsa.GenerateKeyPair(params.Level)
		return alice, bob, err
	}

	master := utils.SeedFromPassphrase(passphrase, []byte(salt))
	defer utils.Zeroize(master)

	aliceSeed, err := utils.DeriveSeed(master, demoDomainAlice, 32)
	if err != nil {
		return nil, nil, err
	}
	bobSeed, err := utils.DeriveSeed(master, demoDomainBob, 32)
	if err != nil {
		return nil, nil, err
	}
	if alice, err = rsa.GenerateKeyPairFromSeed(params, aliceSeed); err != nil {
		return nil, nil, err
	}
	bob, err = rsa.GenerateKeyPairFromSeed(params, bobSeed)
	return alice, bob, err
}

func cmdDemo(args []string) {
	config := parseConfig(args)
	params, err := core.GetParams(config.Level)
	if err != nil {
		fatalf("Error: %v", err)
	}
	message := getArg(args, "--message", "-m")
	if message == "" {
		message = "MEET ME AT THE USUAL PLACE AT TEN"
	}
	salt := getArg(args, "--salt", "")
	if salt == "" {
		salt = defaultSalt
	}

	alice, bob, err := demoKeys(params, getArg(args, "--passphrase", "-p"), salt)
	if err != nil {
		fatalf("Error generating keys: %v", err)
	}

	failed := false
	check := func(name string, ok bool) {
		status := "ok"
		if !ok {
			status = "FAILED"
			failed = true
		}
		fmt.Printf("  %-28s %s\n", name, status)
	}

	fmt.Printf("toyrsa demo (%s)\n", params.Level)
	fmt.Printf("====================\n")
	printKey("alice", alice)
	printKey("bob", bob)
	fmt.Println()

	fmt.Println("1. Alice encrypts for Bob")
	ct, err := rsa.EncryptString(message, bob.Public, params)
	if err != nil {
		fatalf("Error encrypting: %v", err)
	}
	fmt.Printf("  plaintext:  %q\n", message)
	fmt.Printf("  ciphertext: %v\n", ct)
	got, err := rsa.DecryptString(ct, bob.Private, params)
	check("bob decrypts", err == nil && got == message)
	fmt.Println()

	fmt.Println("2. Alice signs and encrypts for Bob")
	blocks, err := codec.Encode(message, params.BlockChars)
	if err != nil {
		fatalf("Error encoding: %v", err)
	}
	msg, err := sign.SignAndEncrypt(blocks, alice.Private, bob.Public)
	if err != nil {
		fatalf("Error signing: %v", err)
	}
	fmt.Printf("  digest:     %d\n", sign.Digest(msg.Ciphertext))
	fmt.Printf("  signature:  %d\n", msg.Signature)
	plain, ok := sign.AuthenticateAndDecrypt(msg, alice.Public, bob.Private)
	text, _ := codec.Decode(plain, params.BlockChars)
	check("bob authenticates", ok && text == message)

	tampered := &toyrsa.SignedMessage{
		Ciphertext: append([]int64(nil), msg.Ciphertext...),
		Signature:  msg.Signature,
	}
	if len(tampered.Ciphertext) > 0 {
		tampered.Ciphertext[0] = (tampered.Ciphertext[0] + 1) % bob.Public.Modulus
	}
	_, ok = sign.AuthenticateAndDecrypt(tampered, alice.Public, bob.Private)
	check("tampered block rejected", !ok)
	fmt.Println()

	fmt.Println("3. Eve factors Bob's public key")
	var recovery *attack.Recovery
	elapsed, err := utils.Timed(func() error {
		var crackErr error
		recovery, crackErr = attack.Crack(context.Background(), bob.Public)
		return crackErr
	})
	if err != nil {
		fatalf("Error cracking: %v", err)
	}
	fmt.Printf("  n = %d = %d * %d\n", bob.Public.Modulus, recovery.P, recovery.Q)
	fmt.Printf("  %d trial divisions in %.3f ms\n", recovery.Divisions, utils.Milliseconds(elapsed))
	eveText, err := rsa.DecryptString(ct, recovery.Key, params)
	check("recovered exponent matches", recovery.Key == bob.Private)
	check("eve decrypts", err == nil && eveText == message)

	if failed {
		fmt.Fprintln(os.Stderr, "Demo FAILED: a Fermat pseudoprime was probably accepted as prime; run again")
		os.Exit(1)
	}
}

func printKey(name string, kp *toyrsa.KeyPair) {
	fmt.Printf("  %-6s n=%d e=%d d=%d fp=%s\n", name, kp.Public.Modulus, kp.Public.Exponent, kp.Private.Exponent, rsa.Fingerprint(kp.Public))
}

func handleBenchmark(args []string) {
	config := parseConfig(args)
	iterationsStr := getArg(args, "--iterations", "-n")

	iterations := 10
	if iterationsStr != "" {
		if n, err := strconv.Atoi(iterationsStr); err == nil {
			iterations = n
		}
	}
	if iterations < 1 {
		iterations = 1
	}

	params, err := core.GetParams(config.Level)
	if err != nil {
		fatalf("Error: %v", err)
	}

	fmt.Printf("toyrsa Benchmark Results\n")
	fmt.Printf("========================\n")
	fmt.Printf("Level: %s\n", config.Level)
	fmt.Printf("Iterations: %d\n\n", iterations)

	run := func(name string, n int, fn func() error) {
		var total time.Duration
		for i := 0; i < n; i++ {
			elapsed, err := utils.Timed(fn)
			if err != nil {
				fatalf("%s error: %v", name, err)
			}
			total += elapsed
		}
		fmt.Printf("  %-12s %v (avg)\n", name+":", total/time.Duration(n))
	}

	run("KeyGen", iterations, func() error {
		_, err := rsa.GenerateKeyPair(config.Level)
		return err
	})

	// Fixed seeds keep the protocol timings free of pseudoprime keys.
	alice, err := rsa.GenerateKeyPairFromSeed(params, []byte(benchSeedAlice))
	if err != nil {
		fatalf("Error: %v", err)
	}
	bob, err := rsa.GenerateKeyPairFromSeed(params, []byte(benchSeedBob))
	if err != nil {
		fatalf("Error: %v", err)
	}

	message := "The quick brown fox jumps over the lazy dog."
	var ct []int64
	run("Encrypt", iterations, func() error {
		var err error
		ct, err = rsa.EncryptString(message, bob.Public, params)
		return err
	})
	run("Decrypt", iterations, func() error {
		_, err := rsa.DecryptString(ct, bob.Private, params)
		return err
	})

	blocks, _ := codec.Encode(message, params.BlockChars)
	var msg *toyrsa.SignedMessage
	run("Sign", iterations, func() error {
		var err error
		msg, err = sign.SignAndEncrypt(blocks, alice.Private, bob.Public)
		return err
	})
	run("Verify", iterations, func() error {
		if _, ok := sign.AuthenticateAndDecrypt(msg, alice.Public, bob.Private); !ok {
			return fmt.Errorf("verification failed")
		}
		return nil
	})

	crackRuns := iterations
	if config.Level == toyrsa.RSA56 {
		crackRuns = 1
	}
	run("Crack", crackRuns, func() error {
		_, err := attack.CrackPrivateKey(bob.Public)
		return err
	})

	fmt.Println()
	fmt.Println("Benchmark complete!")
}
