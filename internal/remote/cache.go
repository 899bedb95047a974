package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Cache is the filecache layer: it makes remote references available as local
// files under a destination folder, skipping any file that is already
// materialized. Idempotence is by local path; the cache never overwrites and
// never deletes.
type Cache struct {
	remote FS
	local  afero.Fs
	log    *slog.Logger
}

func NewCache(remote FS, log *slog.Logger) *Cache {
	return NewCacheWithFS(remote, afero.NewOsFs(), log)
}

func NewCacheWithFS(remote FS, local afero.Fs, log *slog.Logger) *Cache {
	return &Cache{
		remote: remote,
		local:  local,
		log:    log.With(slog.String("item", "Cache")),
	}
}

// EnsureLocal makes every remote reference available under dest and returns
// the local paths in reference order. A single reference is materialized at
// dest itself; when several references share one destination, dest is a
// folder and files keep their remote base names. An existing local file is
// taken as already fetched and skipped without a remote call.
func (c *Cache) EnsureLocal(ctx context.Context, dest string, remotes []string) ([]string, error) {
	paths := make([]string, 0, len(remotes))
	for _, ref := range remotes {
		local := dest
		if len(remotes) > 1 {
			local = filepath.Join(dest, baseName(ref))
		}

		exists, err := afero.Exists(c.local, local)
		if err != nil {
			return nil, fmt.Errorf("cannot stat %s: %w", local, err)
		}
		if exists {
			c.log.Debug("Already cached", slog.String("path", local))
			paths = append(paths, local)

			continue
		}

		if err := c.materialize(ctx, ref, local); err != nil {
			return nil, err
		}

		c.log.Info("Fetched", slog.String("remote", ref), slog.String("path", local))
		paths = append(paths, local)
	}

	return paths, nil
}

// materialize writes the remote stream to a temp file next to the target and
// renames it into place, so an interrupted transfer never leaves a truncated
// file that a later run would take for a valid cache entry.
func (c *Cache) materialize(ctx context.Context, ref, local string) error {
	if err := c.local.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("cannot create cache dir for %s: %w", local, err)
	}

	body, err := c.remote.Fetch(ctx, ref)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp := local + "." + uuid.NewString() + ".part"
	if err := afero.WriteReader(c.local, tmp, body); err != nil {
		c.local.Remove(tmp)

		return fmt.Errorf("cannot write %s: %w", tmp, err)
	}

	if err := c.local.Rename(tmp, local); err != nil {
		c.local.Remove(tmp)

		return fmt.Errorf("cannot rename %s: %w", tmp, err)
	}

	return nil
}

// baseName extracts the file name of a remote reference, ignoring any query
// string a rendered URL may carry.
func baseName(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}

	return path.Base(ref)
}
