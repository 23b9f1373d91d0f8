package main

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/api"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth/jwt"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth/password"
)

// demoSigningKey is a throwaway 32-byte HMAC secret for the walkthrough.
var demoSigningKey = []byte("demo-0123456789abcdef0123456789a")

func main() {
	fmt.Println("=== user service auth flow demo ===")
	fmt.Println()

	// 1. Build and validate a registration request
	req := &api.RegisterRequest{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct-horse-battery",
	}
	cfg := api.DefaultValidationConfig()
	if err := api.ValidateRegisterRequest(req, cfg); err != nil {
		fmt.Printf("Validation FAILED: %v\n", err)
		return
	}
	fmt.Println("[1] Registration request validated successfully")

	data, _ := json.MarshalIndent(req, "", "  ")
	fmt.Printf("\n[2] Request JSON:\n%s\n", data)

	// 2. Hash the password (MinCost keeps the demo snappy; production
	// uses cost 12)
	hasher := password.NewBcryptHasher(password.WithCost(bcrypt.MinCost))
	hash, err := hasher.Hash(req.Password)
	if err != nil {
		fmt.Printf("Hashing FAILED: %v\n", err)
		return
	}
	fmt.Printf("\n[3] Password hashing:")
	fmt.Printf("\n    hash:           %s...", hash[:29])
	fmt.Printf("\n    verify correct: %v", hasher.Verify(req.Password, hash))
	fmt.Printf("\n    verify wrong:   %v\n", hasher.Verify("not-the-password", hash))

	// 3. Issue a bearer token and parse it back
	codec, err := jwt.NewCodec(jwt.Config{SigningKey: demoSigningKey, TokenTTL: time.Hour})
	if err != nil {
		fmt.Printf("Codec FAILED: %v\n", err)
		return
	}
	token, err := codec.Issue(req.Username, 0)
	if err != nil {
		fmt.Printf("Issue FAILED: %v\n", err)
		return
	}
	claims, err := codec.Parse(token)
	if err != nil {
		fmt.Printf("Parse FAILED: %v\n", err)
		return
	}
	fmt.Printf("\n[4] Token round-trip:")
	fmt.Printf("\n    token:      %s...", token[:24])
	fmt.Printf("\n    subject:    %s", claims.Subject)
	fmt.Printf("\n    issued_at:  %s", claims.IssuedAt.Format(time.RFC3339))
	fmt.Printf("\n    expires_at: %s\n", claims.ExpiresAt.Format(time.RFC3339))

	// 4. Token verdicts: every bad credential is rejected, each for its
	// own reason
	fmt.Println("\n[5] Token verdicts:")

	otherCodec, _ := jwt.NewCodec(jwt.Config{SigningKey: []byte("other-0123456789abcdef012345678a")})
	forged, _ := otherCodec.Issue(req.Username, time.Hour)

	backdated, _ := jwt.NewCodec(jwt.Config{
		SigningKey: demoSigningKey,
		Now:        func() time.Time { return time.Now().Add(-2 * time.Hour) },
	})
	expired, _ := backdated.Issue(req.Username, time.Hour)

	verdicts := []struct {
		name  string
		token string
	}{
		{"valid", token},
		{"tampered payload", tamper(token)},
		{"signed with another key", forged},
		{"expired an hour ago", expired},
		{"not a token at all", "garbage"},
	}
	for _, v := range verdicts {
		if _, err := codec.Parse(v.token); err != nil {
			fmt.Printf("    %-24s REJECTED\n", v.name)
		} else {
			fmt.Printf("    %-24s OK\n", v.name)
		}
	}

	// 5. Validation error examples
	fmt.Println("\n[6] Validation error examples:")
	badRegisters := []*api.RegisterRequest{
		{Username: "ada", Password: "correct-horse-battery"},
		{Email: "ada@example.com", Username: "ada", Password: "short"},
		{Email: "ada@example.com", Username: "a d a", Password: "correct-horse-battery"},
	}
	for _, bad := range badRegisters {
		if err := api.ValidateRegisterRequest(bad, cfg); err != nil {
			fmt.Printf("    register: %v\n", err)
		}
	}
	badLogin := &api.LoginRequest{Password: "correct-horse-battery"}
	if err := api.ValidateLoginRequest(badLogin, api.LoginAxisUsername, cfg); err != nil {
		fmt.Printf("    login:    %v\n", err)
	}

	// 6. The error envelope as clients see it
	fmt.Println("\n[7] Error envelope JSON:")
	envelope := api.ErrorResponse{
		Error: api.NewInvalidRequestError("email", "email is required"),
	}
	envJSON, _ := json.MarshalIndent(envelope, "", "  ")
	fmt.Printf("%s\n", envJSON)

	fmt.Println("\n=== demo complete ===")
}

// tamper flips the last character of a token so the signature no longer
// matches.
func tamper(token string) string {
	last := "x"
	if token[len(token)-1] == 'x' {
		last = "y"
	}
	return token[:len(token)-1] + last
}
