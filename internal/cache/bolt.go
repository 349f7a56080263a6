// Package cache provides a BoltDB-backed caching decorator over
// solve.Resolver, grounded on golang-dep's boltCache/singleSourceCacheBolt:
// one top-level bucket per concern, timestamp-prefixed values so entries
// older than the cache's epoch are treated as absent without being deleted.
package cache

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/nativepkg/solve"
)

var (
	resolveBucket = []byte("resolve")
	packageBucket = []byte("package")
)

// Cache manages a BoltDB file and hands out Resolver decorators over it.
// Values written before epoch are never returned, so a new Cache with a
// fresh epoch effectively invalidates everything older without deleting it.
type Cache struct {
	db    *bolt.DB
	epoch int64
}

// Open returns a Cache backed by a BoltDB file at path, creating its parent
// directory if needed.
func Open(path string, epoch int64) (*Cache, error) {
	dir := filepath.Dir(path)
	if fi, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating cache directory %s", dir)
		}
	} else if err != nil {
		return nil, errors.Wrapf(err, "checking cache directory %s", dir)
	} else if !fi.IsDir() {
		return nil, errors.Errorf("cache path %s is not a directory", dir)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache file %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(resolveBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(packageBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing cache buckets")
	}

	return &Cache{db: db, epoch: epoch}, nil
}

// Close releases the underlying BoltDB file.
func (c *Cache) Close() error {
	return errors.Wrap(c.db.Close(), "closing cache")
}

// Wrap returns a Resolver that checks this cache before delegating to inner,
// and populates the cache with whatever inner returns. Resolve results are
// cached per (name, spec string); Package results per (name, version).
func (c *Cache) Wrap(inner solve.Resolver) solve.Resolver {
	return &cachedResolver{cache: c, inner: inner}
}

type cachedResolver struct {
	cache *Cache
	inner solve.Resolver
}

func resolveKey(req solve.Req) []byte {
	return []byte(req.Name + "\x00" + req.Spec.String())
}

func packageKey(name string, v solve.Version) []byte {
	return []byte(name + "\x00" + v.String())
}

// entrySep/fieldSep delimit cached values; neither character is valid in a
// package name, version string, or source URL produced by this module.
const (
	entrySep = "\n"
	fieldSep = "\x1f"
)

func encodeTimestamped(body string) []byte {
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().Unix()))
	return append(ts, []byte(body)...)
}

// decodeTimestamped strips the leading 8-byte timestamp and reports whether
// it is at or after epoch.
func (c *Cache) decodeTimestamped(raw []byte) (body string, fresh bool) {
	if len(raw) < 8 {
		return "", false
	}
	ts := int64(binary.BigEndian.Uint64(raw[:8]))
	return string(raw[8:]), ts >= c.epoch
}

func (r *cachedResolver) Resolve(ctx context.Context, req solve.Req) ([]solve.Resolution, error) {
	key := resolveKey(req)

	var cached []solve.Resolution
	var hit bool
	err := r.cache.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(resolveBucket).Get(key)
		if raw == nil {
			return nil
		}
		body, fresh := r.cache.decodeTimestamped(raw)
		if !fresh {
			return nil
		}
		resolutions, err := decodeResolutions(body)
		if err != nil {
			return nil // a corrupt entry is a cache miss, not an error
		}
		cached, hit = resolutions, true
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading resolve cache")
	}
	if hit {
		return cached, nil
	}

	results, err := r.inner.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	body := encodeResolutions(results)
	if err := r.cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resolveBucket).Put(key, encodeTimestamped(body))
	}); err != nil {
		return nil, errors.Wrap(err, "writing resolve cache")
	}
	return results, nil
}

func (r *cachedResolver) Package(ctx context.Context, res solve.Resolution) (solve.Package, error) {
	key := packageKey(res.Name, res.Version)

	var cached solve.Package
	var hit bool
	err := r.cache.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(packageBucket).Get(key)
		if raw == nil {
			return nil
		}
		body, fresh := r.cache.decodeTimestamped(raw)
		if !fresh {
			return nil
		}
		pkg, err := decodePackage(body)
		if err != nil {
			return nil
		}
		cached, hit = pkg, true
		return nil
	})
	if err != nil {
		return solve.Package{}, errors.Wrap(err, "reading package cache")
	}
	if hit {
		return cached, nil
	}

	pkg, err := r.inner.Package(ctx, res)
	if err != nil {
		return solve.Package{}, err
	}

	body := encodePackage(pkg)
	if err := r.cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(packageBucket).Put(key, encodeTimestamped(body))
	}); err != nil {
		return solve.Package{}, errors.Wrap(err, "writing package cache")
	}
	return pkg, nil
}

func encodeResolutions(rs []solve.Resolution) string {
	entries := make([]string, len(rs))
	for i, r := range rs {
		entries[i] = strings.Join([]string{r.Name, r.Version.String(), r.Source}, fieldSep)
	}
	return strings.Join(entries, entrySep)
}

func decodeResolutions(body string) ([]solve.Resolution, error) {
	if body == "" {
		return nil, nil
	}
	lines := strings.Split(body, entrySep)
	out := make([]solve.Resolution, 0, len(lines))
	for _, line := range lines {
		fields := strings.Split(line, fieldSep)
		if len(fields) != 3 {
			return nil, errors.Errorf("malformed cached resolution entry %q", line)
		}
		v, err := solve.ParseVersion(fields[1])
		if err != nil {
			return nil, err
		}
		out = append(out, solve.Resolution{Name: fields[0], Version: v, Source: fields[2]})
	}
	return out, nil
}

func encodeReqs(reqs []solve.Req) string {
	entries := make([]string, len(reqs))
	for i, r := range reqs {
		entries[i] = r.String()
	}
	return strings.Join(entries, entrySep)
}

func decodeReqs(body string) ([]solve.Req, error) {
	if body == "" {
		return nil, nil
	}
	lines := strings.Split(body, entrySep)
	out := make([]solve.Req, 0, len(lines))
	for _, line := range lines {
		name, spec := line, "*"
		if i := strings.IndexByte(line, ' '); i >= 0 {
			name, spec = line[:i], line[i+1:]
		}
		req, err := solve.NewReq(name, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// encodePackage/decodePackage serialize a Package as seven fieldSep-joined
// top-level sections, the last three themselves entrySep-joined requirement
// lists, matching how the teacher's cache encoder hand-rolls a format per
// type rather than reaching for a general serializer for a handful of
// fields (see DESIGN.md).
func encodePackage(p solve.Package) string {
	return strings.Join([]string{
		p.Name,
		p.Version.String(),
		p.Source,
		p.Opam,
		encodeReqs(p.Dependencies),
		encodeReqs(p.BuildDependencies),
		encodeReqs(p.DevDependencies),
	}, fieldSep)
}

func decodePackage(body string) (solve.Package, error) {
	fields := strings.Split(body, fieldSep)
	if len(fields) != 7 {
		return solve.Package{}, errors.Errorf("malformed cached package entry %q", body)
	}
	v, err := solve.ParseVersion(fields[1])
	if err != nil {
		return solve.Package{}, err
	}
	deps, err := decodeReqs(fields[4])
	if err != nil {
		return solve.Package{}, err
	}
	buildDeps, err := decodeReqs(fields[5])
	if err != nil {
		return solve.Package{}, err
	}
	devDeps, err := decodeReqs(fields[6])
	if err != nil {
		return solve.Package{}, err
	}
	return solve.Package{
		Name:              fields[0],
		Version:           v,
		Source:            fields[2],
		Opam:              fields[3],
		Dependencies:      deps,
		BuildDependencies: buildDeps,
		DevDependencies:   devDeps,
	}, nil
}
