package main

import (
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/FreeSideNomad/proxima/pkg/cli"
	"github.com/FreeSideNomad/proxima/pkg/config"
	"github.com/FreeSideNomad/proxima/pkg/oidc/keystore"
)

var keysFlags struct {
	output string
	keyID  string
}

var hmacFlags struct {
	keyID string
}

var jwksFlags struct {
	keyID string
}

var mintFlags struct {
	subject   string
	claims    string
	expiresIn int64
	algorithm string
	keyID     string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate signing keys and tokens offline",
	Long: `Generate signing key pairs and mint test tokens without a running server.

The keys generated here use the same key store as the server, so tokens
minted offline verify against keys generated offline. Note that the server
generates its own keys at startup; use the /proxima/api/jwt endpoints to
manage keys on a running instance.

Subcommands:
  generate - Generate an RSA key pair and save it as PEM files
  hmac     - Generate an HMAC secret and print it
  jwks     - Print a JWKS document for freshly generated keys
  mint     - Mint a signed JWT for ad-hoc testing

Examples:
  # Generate a key pair
  proxima keys generate --key-id local-dev

  # Mint a token
  proxima keys mint --subject test-user --claims '{"email":"t@example.com"}'`,
}

var keysHMACCmd = &cobra.Command{
	Use:   "hmac",
	Short: "Generate an HMAC secret",
	Long: `Generate a 256-bit HMAC secret for HS256 signing and print it
base64-encoded to stdout.`,
	RunE: generateHMAC,
}

var keysJWKSCmd = &cobra.Command{
	Use:   "jwks",
	Short: "Print a JWKS document",
	Long: `Generate a fresh RSA key pair and print the corresponding JSON Web
Key Set. Useful for seeding client libraries in tests.`,
	RunE: printJWKS,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an RSA key pair",
	Long: `Generate a new RSA key pair for token signing.

The keys are saved as PEM files with restrictive permissions:
  - Public key:  0644 (readable by all)
  - Private key: 0600 (readable only by owner)

Examples:
  # Generate a key pair with an auto-generated ID
  proxima keys generate

  # Generate with a custom ID into a custom directory
  proxima keys generate --key-id local-dev --output /etc/proxima/keys`,
	RunE: generateKeys,
}

var keysMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint a signed JWT",
	Long: `Mint a signed JWT with a freshly generated key.

The token is printed to stdout together with the public key needed to
verify it. Custom claims are supplied as a JSON object.

Examples:
  # Mint with defaults
  proxima keys mint --subject test-user

  # Mint an HS256 token with custom claims
  proxima keys mint --subject test-user --algorithm HS256 \
    --claims '{"email":"test@example.com","groups":["dev"]}'`,
	RunE: mintToken,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd, keysHMACCmd, keysJWKSCmd, keysMintCmd)

	keysGenerateCmd.Flags().StringVarP(&keysFlags.output, "output", "o", "./keys", "output directory")
	keysGenerateCmd.Flags().StringVar(&keysFlags.keyID, "key-id", "", "key ID (auto-generated if empty)")

	keysHMACCmd.Flags().StringVar(&hmacFlags.keyID, "key-id", keystore.DefaultKeyID, "key ID")
	keysJWKSCmd.Flags().StringVar(&jwksFlags.keyID, "key-id", "", "extra RSA key ID to include (optional)")

	keysMintCmd.Flags().StringVar(&mintFlags.subject, "subject", "test-user", "token subject")
	keysMintCmd.Flags().StringVar(&mintFlags.claims, "claims", "", "custom claims as a JSON object")
	keysMintCmd.Flags().Int64Var(&mintFlags.expiresIn, "expires-in", config.DefaultTokenExpirySeconds, "token lifetime in seconds")
	keysMintCmd.Flags().StringVar(&mintFlags.algorithm, "algorithm", config.DefaultAlgorithm, "signing algorithm: RS256, HS256")
	keysMintCmd.Flags().StringVar(&mintFlags.keyID, "key-id", keystore.DefaultKeyID, "signing key ID")
}

func generateKeys(cmd *cobra.Command, args []string) error {
	if keysFlags.keyID == "" {
		keysFlags.keyID = fmt.Sprintf("key-%d", time.Now().Unix())
	}

	fmt.Println("Generating RSA key pair...")

	keys, err := keystore.New()
	if err != nil {
		return fmt.Errorf("failed to initialize key store: %w", err)
	}

	pair, err := keys.GenerateRSAKeyPair(keysFlags.keyID)
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	if err := os.MkdirAll(keysFlags.output, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	publicPath := filepath.Join(keysFlags.output, pair.KeyID+"_public.pem")
	if err := writePEM(publicPath, "PUBLIC KEY", pair.PublicKey, 0644); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}

	privatePath := filepath.Join(keysFlags.output, pair.KeyID+"_private.pem")
	if err := writePEM(privatePath, "PRIVATE KEY", pair.PrivateKey, 0600); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}

	fmt.Printf("Key ID: %s\n", pair.KeyID)
	fmt.Printf("Public Key:  %s\n", publicPath)
	fmt.Printf("Private Key: %s\n", privatePath)
	fmt.Println()
	fmt.Println("✓ Keys generated successfully")
	return nil
}

// writePEM decodes the base64 DER bytes and writes them as a single PEM
// block at path.
func writePEM(path, blockType, b64 string, mode os.FileMode) error {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer file.Close()

	return pem.Encode(file, &pem.Block{Type: blockType, Bytes: der})
}

func generateHMAC(cmd *cobra.Command, args []string) error {
	keys, err := keystore.New()
	if err != nil {
		return fmt.Errorf("failed to initialize key store: %w", err)
	}

	secret, err := keys.GenerateHMACKey(hmacFlags.keyID)
	if err != nil {
		return fmt.Errorf("failed to generate HMAC secret: %w", err)
	}

	fmt.Println(secret)
	return nil
}

func printJWKS(cmd *cobra.Command, args []string) error {
	keys, err := keystore.New()
	if err != nil {
		return fmt.Errorf("failed to initialize key store: %w", err)
	}

	if jwksFlags.keyID != "" {
		if _, err := keys.GenerateRSAKeyPair(jwksFlags.keyID); err != nil {
			return fmt.Errorf("failed to generate key pair: %w", err)
		}
	}

	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, keys.JWKS())
}

func mintToken(cmd *cobra.Command, args []string) error {
	claims := map[string]any{}
	if mintFlags.claims != "" {
		if err := json.Unmarshal([]byte(mintFlags.claims), &claims); err != nil {
			return fmt.Errorf("invalid claims JSON: %w", err)
		}
	}

	keys, err := keystore.New()
	if err != nil {
		return fmt.Errorf("failed to initialize key store: %w", err)
	}

	expiry := time.Duration(mintFlags.expiresIn) * time.Second
	token, err := keys.Sign(mintFlags.subject, claims, expiry, mintFlags.algorithm, mintFlags.keyID)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}

	fmt.Println(token)

	if mintFlags.algorithm == "RS256" {
		pubPEM, err := keys.PublicKeyPEM(mintFlags.keyID)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Verify with this public key:")
		fmt.Fprintln(os.Stderr, pubPEM)
	}
	return nil
}
