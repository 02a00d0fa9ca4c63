package health

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/shape"
)

// ContentStore owns the educational videos. Content rides in the plans
// envelope; it changes rarely, so this store is fully persisted and the
// durable copy serves as the offline cache.
type ContentStore struct {
	mu     sync.RWMutex
	gw     homa.Gateway
	ident  Identity
	logger *zap.Logger

	videos      []Video
	loading     bool
	initialized bool
	errMsg      string

	onChange func()
}

// NewContentStore creates an uninitialized content store.
func NewContentStore(gw homa.Gateway, ident Identity, logger *zap.Logger) *ContentStore {
	return &ContentStore{gw: gw, ident: ident, logger: logger}
}

// Fetch replaces the list wholesale on success; failures record the error
// and keep the previous cache.
func (s *ContentStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	res, err := s.gw.Get(ctx, homa.PlansEndpoint(s.ident.PatientID()))

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		s.mu.Unlock()
		return err
	}
	s.errMsg = ""
	s.initialized = true

	items := shape.ExtractArray(res, "data.videos", "videos", "data.content", "content")
	videos := make([]Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, Video{
			ID:          shape.FirstString(item, "id", "video_id"),
			Title:       shape.FirstString(item, "title", "titulo", "name", "nombre"),
			Description: shape.FirstString(item, "description", "descripcion"),
			URL:         shape.FirstString(item, "url", "link", "enlace", "video_url"),
			Thumbnail:   shape.FirstString(item, "thumbnail", "miniatura", "image", "imagen"),
			Duration:    shape.FirstString(item, "duration", "duracion"),
		})
	}
	s.videos = videos
	s.mu.Unlock()

	s.notifyChange()
	return nil
}

// Videos returns a copy of the cached list.
func (s *ContentStore) Videos() []Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Video, len(s.videos))
	copy(out, s.videos)
	return out
}

// ForceReload drops the initialized flag and fetches again.
func (s *ContentStore) ForceReload(ctx context.Context) error {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	return s.Fetch(ctx)
}

func (s *ContentStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *ContentStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *ContentStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// PersistID identifies the store in the persistence policy table.
func (s *ContentStore) PersistID() string { return "content" }

// Snapshot exports the full serializable state; content is a
// fully-persisted store.
func (s *ContentStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	videos := make([]map[string]any, len(s.videos))
	for i, v := range s.videos {
		videos[i] = map[string]any{
			"id":          v.ID,
			"title":       v.Title,
			"description": v.Description,
			"url":         v.URL,
			"thumbnail":   v.Thumbnail,
			"duration":    v.Duration,
		}
	}
	return map[string]any{
		"videos":      videos,
		"initialized": s.initialized,
	}
}

// Apply restores a snapshot wholesale.
func (s *ContentStore) Apply(state map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := state["videos"].([]any)
	if !ok {
		return
	}
	videos := make([]Video, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		videos = append(videos, Video{
			ID:          str(fields["id"]),
			Title:       str(fields["title"]),
			Description: str(fields["description"]),
			URL:         str(fields["url"]),
			Thumbnail:   str(fields["thumbnail"]),
			Duration:    str(fields["duration"]),
		})
	}
	s.videos = videos
	if init, ok := state["initialized"].(bool); ok {
		s.initialized = init
	}
}

// Reset restores construction-time defaults.
func (s *ContentStore) Reset() {
	s.mu.Lock()
	s.videos = nil
	s.loading = false
	s.initialized = false
	s.errMsg = ""
	s.mu.Unlock()
}

// OnChange registers the persistence manager's mutation observer.
func (s *ContentStore) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *ContentStore) notifyChange() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
