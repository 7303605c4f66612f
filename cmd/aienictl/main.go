// Package main provides aienictl, an operator CLI for exporting the record
// collections and minting admin tokens.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"aieni/internal/export"
	jwttoken "aieni/internal/jwt_token"
	"aieni/internal/notify"
	"aieni/internal/platform/config"
	"aieni/internal/platform/logger"
	platformredis "aieni/internal/platform/redis"
	"aieni/internal/records"
	"aieni/internal/registration"
	regservice "aieni/internal/registration/service"
	"aieni/internal/storage/driver"
	"aieni/internal/submission"
	subservice "aieni/internal/submission/service"
)

const (
	kindSubmissions   = "submissions"
	kindRegistrations = "registrations"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	JTI       string            `json:"jti"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cfg := config.FromEnv()
	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(cfg, os.Args[2:])
	case "token":
		err = runToken(cfg, os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `aienictl - operate an AIENI deployment

Usage:
  aienictl <command> [flags]

Commands:
  export    Write a CSV export of submissions or registrations
  token     Print a signed admin token (JWT)

Storage is selected with the same environment variables as the server
(AIENI_STORAGE_DRIVER, AIENI_SQLITE_PATH, DATABASE_URL, REDIS_URL).

Examples:
  aienictl export -kind submissions -out ./exports
  aienictl export -kind registrations
  aienictl token -ttl 1h -json

Use "aienictl <command> -h" for more information about a command.`)
}

func runExport(cfg config.Server, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	kind := fs.String("kind", kindSubmissions, "Collection to export: submissions or registrations")
	out := fs.String("out", ".", "Directory the CSV file is written to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var opened *driver.Opened
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // process exit
		opened, err = driver.Open(ctx, cfg.Storage, redisClient, log)
	} else {
		opened, err = driver.Open(ctx, cfg.Storage, nil, log)
	}
	if err != nil {
		return err
	}
	defer opened.Close() //nolint:errcheck // process exit

	d := &export.FileDownloader{Dir: *out}
	rows, err := exportKind(ctx, opened, *kind, d, log)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d %s to %s\n", rows, *kind, d.Written)
	return nil
}

func exportKind(ctx context.Context, opened *driver.Opened, kind string, d export.Downloader, log *slog.Logger) (int, error) {
	switch kind {
	case kindSubmissions:
		svc := subservice.New(records.New(opened.KV, submission.Codec, log), nil, notify.Nop{}, subservice.WithLogger(log))
		return svc.Export(ctx, d)
	case kindRegistrations:
		svc := regservice.New(records.New(opened.KV, registration.Codec, log), notify.Nop{}, regservice.WithLogger(log))
		return svc.Export(ctx, d)
	}
	return 0, fmt.Errorf("unknown kind %q (want %s or %s)", kind, kindSubmissions, kindRegistrations)
}

func runToken(cfg config.Server, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	email := fs.String("email", cfg.Admin.Email, "Administrator email carried in the token")
	ttl := fs.Duration("ttl", cfg.Admin.TokenTTL, "Token time-to-live")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := jwttoken.NewJWTService(cfg.Admin.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience, *ttl)
	svc.SetEnv(cfg.Environment)
	token, jti, err := svc.GenerateAdminToken(*email, "aienictl")
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	if *jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tokenOutput{
			Token:     token,
			Type:      "admin_token",
			JTI:       jti,
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
				"note":   "Accepted when the server runs with AIENI_DEMO_MODE=false and the same JWT_SIGNING_KEY",
			},
		})
	}

	fmt.Fprintln(w, "Admin Token (JWT)")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "Email:      %s\n", *email)
	fmt.Fprintf(w, "Expires In: %s\n", *ttl)
	fmt.Fprintf(w, "JTI:        %s\n", jti)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Token:")
	fmt.Fprintln(w, token)
	return nil
}
