package cli

import (
	"context"
	"time"

	"github.com/niraj-khatiwada/mdr/internal/connectors/filesystem"
	"github.com/niraj-khatiwada/mdr/internal/core/domain"
	"github.com/niraj-khatiwada/mdr/internal/core/services"
	"github.com/niraj-khatiwada/mdr/internal/parsers/markdown"
)

// loadDocument parses the file once for the one-shot commands.
// Diagrams are not rendered.
func loadDocument(ctx context.Context, arg string) (*services.DocumentService, error) {
	path, err := filesystem.RequireFile(arg)
	if err != nil {
		return nil, err
	}

	cfg := loadConfig()

	reader := filesystem.New(path)
	defer reader.Close() //nolint:errcheck

	data, err := reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	parser := markdown.New(markdown.WithDiagramKinds(cfg.Diagrams.Kinds...))
	doc := domain.NewDocument(1, path, parser.Parse(data), time.Now())

	return services.NewDocumentService(services.StaticSource{
		Snapshot: domain.Snapshot{
			Document: doc,
			State:    domain.StateReady,
			Revision: 1,
		},
	}), nil
}
