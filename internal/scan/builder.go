package scan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bioscanq/scanq/pkg/config"
	"github.com/bioscanq/scanq/pkg/domain"
)

// Request is a validated scan invocation. Databases is already split; an
// empty slice means "all databases".
type Request struct {
	InputFile    string
	Databases    []string
	OutputFormat string
	GoTerms      bool
	Pathways     bool
}

// Builder turns a Request into a CommandSpec. Its only side effect is staging
// the input file into a fresh scratch directory so the scanner never touches
// the caller's copy.
type Builder struct {
	scannerPath string
	maxFileSize int64
	tempRoot    string
	timeout     time.Duration
}

func NewBuilder(cfg config.Config) *Builder {
	return &Builder{
		scannerPath: cfg.ScannerPath,
		maxFileSize: cfg.MaxFileSize,
		tempRoot:    cfg.TempDir,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Build validates the request, stages the input, and returns the spec plus a
// cleanup function. Cleanup removes the scratch directory and must be called
// on every path, including timeouts.
func (b *Builder) Build(req Request) (domain.CommandSpec, func(), error) {
	noop := func() {}

	info, err := os.Stat(req.InputFile)
	if err != nil {
		return domain.CommandSpec{}, noop, domain.NewValidationError("input file not found: %s", req.InputFile)
	}
	if info.Size() > b.maxFileSize {
		return domain.CommandSpec{}, noop, domain.NewValidationError("file too large: maximum size is %d bytes", b.maxFileSize)
	}

	root := b.tempRoot
	if root == "" {
		root = os.TempDir()
	}
	scratch := filepath.Join(root, "scanq-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o700); err != nil {
		return domain.CommandSpec{}, noop, fmt.Errorf("create scratch dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(scratch) }

	staged := filepath.Join(scratch, filepath.Base(req.InputFile))
	if err := copyFile(req.InputFile, staged); err != nil {
		cleanup()
		return domain.CommandSpec{}, noop, fmt.Errorf("stage input file: %w", err)
	}

	format := req.OutputFormat
	if format == "" {
		format = "tsv"
	}
	stem := strings.TrimSuffix(filepath.Base(staged), filepath.Ext(staged))
	outFile := filepath.Join(scratch, stem+"_interpro")

	args := []string{
		"-i", staged,
		"-o", outFile,
		"-f", format,
		// Precalculated-match lookup needs the network; disabling it keeps
		// runs deterministic and failures local.
		"--disable-precalc",
	}
	if len(req.Databases) > 0 {
		args = append(args, "-appl", strings.Join(req.Databases, ","))
	}
	if req.GoTerms {
		args = append(args, "--goterms")
	}
	if req.Pathways {
		args = append(args, "--pathways")
	}

	spec := domain.CommandSpec{
		Path:    b.scannerPath,
		Args:    args,
		Dir:     scratch,
		Timeout: b.timeout,
	}
	return spec, cleanup, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
