package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painel-conteudo/internal/auth"
	"github.com/gestaozabele/painel-conteudo/internal/config"
	"github.com/gestaozabele/painel-conteudo/internal/httpclient"
	"github.com/gestaozabele/painel-conteudo/internal/upload"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "send":
		if err := runSend(ctx, args); err != nil {
			log.Fatal().Err(err).Msg("falha no upload")
		}
	case "plan":
		if err := runPlan(args); err != nil {
			log.Fatal().Err(err).Msg("falha ao planejar upload")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "upload CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  upload send --feature course-cover [--direct] [--origin https://...] arquivo [arquivo...]")
	fmt.Fprintln(os.Stderr, "  upload plan [--direct] arquivo [arquivo...]")
	fmt.Fprintln(os.Stderr, "variáveis: PAINEL_TOKEN, DASHBOARD_ORIGIN, BACKEND_ORIGIN, PUBLIC_ORIGIN, UPLOAD_ALLOWED_ORIGINS, UPLOAD_TIMEOUT")
	fmt.Fprintln(os.Stderr, "arquivos grandes vão direto a PUBLIC_ORIGIN; os demais passam pelo relay do painel em DASHBOARD_ORIGIN")
}

func runSend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		feature = fs.String("feature", upload.DefaultFeature, "categoria do arquivo (ex.: course-cover)")
		direct  = fs.Bool("direct", false, "força envio direto à origem pública")
		origin  = fs.String("origin", "", "origem alternativa, precisa estar em UPLOAD_ALLOWED_ORIGINS")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("informe ao menos um arquivo")
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if cfg.DashboardOrigin == "" {
		return errors.New("DASHBOARD_ORIGIN obrigatório: o modo relayed passa pelo painel")
	}

	files, err := readFiles(fs.Args())
	if err != nil {
		return err
	}

	logger := log.With().Str("component", "upload").Logger()
	client := httpclient.New(httpclient.Options{Timeout: cfg.UploadTimeout, Logger: logger})
	transport := upload.NewMultipartTransport(client, logger)
	service := upload.NewService(
		auth.StaticTokenProvider(os.Getenv("PAINEL_TOKEN")),
		upload.Origins{Direct: cfg.PublicOrigin, Relayed: cfg.DashboardOrigin, Allowed: cfg.UploadAllowedOrigins},
		transport,
		transport,
		logger,
	)

	req := upload.Request{Files: files, Feature: *feature, OriginOverride: *origin}
	if *direct {
		req.ExplicitDirect = direct
	}

	outcomes, err := service.Upload(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcomes)
}

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	direct := fs.Bool("direct", false, "simula envio direto forçado")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("informe ao menos um arquivo")
	}

	files := make([]upload.File, 0, fs.NArg())
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		files = append(files, upload.File{Name: filepath.Base(path), Size: info.Size()})
	}

	mode := "sequencial"
	if len(files) > 1 {
		mode = "lote"
	}
	fmt.Printf("estratégia: %s\n", upload.Decide(files, *direct))
	fmt.Printf("envio: %s (%d arquivos)\n", mode, len(files))
	for _, f := range files {
		marker := ""
		if f.Size > upload.LargeFileThreshold {
			marker = " (grande)"
		}
		fmt.Printf("  %s\t%d bytes%s\n", f.Name, f.Size, marker)
	}
	return nil
}

func readFiles(paths []string) ([]upload.File, error) {
	files := make([]upload.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ler %s: %w", path, err)
		}
		name := filepath.Base(path)
		mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
		files = append(files, upload.File{
			Name:     name,
			Size:     int64(len(data)),
			MimeType: mimeType,
			Bytes:    data,
		})
	}
	return files, nil
}
