package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// sanitize keeps profile names safe as file name stems.
func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "profile"
	}
	return string(out)
}

// ExportAll writes every profile to dir, one file per profile, a few at
// a time. Returns the written file paths in profile order.
func (s *Service) ExportAll(ctx context.Context, dir, format string) ([]string, error) {
	ext, err := Extension(format)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	profiles, err := s.store.ListProfiles()
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(profiles))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range profiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, fmt.Sprintf("%s_%d%s", sanitize(p.Name), p.ID, ext))
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := s.Export(p.ID, format, f); err != nil {
				f.Close()
				os.Remove(path)
				return fmt.Errorf("exporting profile %q: %w", p.Name, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
