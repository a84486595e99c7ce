package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"

	"railwatch/internal/api/response"
	"railwatch/internal/config"
	"railwatch/internal/network"
	"railwatch/internal/session"
	"railwatch/pkg/types"
)

// pathParamID extracts a URL path parameter. Conflict and
// recommendation ids carry block-key arrows, so clients send them
// percent-encoded and chi hands the segment back still escaped.
func pathParamID(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// resolveSession looks up the session named by the request, falling
// back to the default session when none is named. Writes a 404 and
// returns nil when the id is unknown.
func resolveSession(m *session.Manager, w http.ResponseWriter, r *http.Request) *session.Session {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		id = r.Header.Get("X-Session-ID")
	}

	sess, err := m.Resolve(id)
	if err != nil {
		response.WriteNotFound(w, "Session not found", id)
		return nil
	}
	return sess
}

// decodeBody decodes a JSON request body into dst. An empty body is
// fine: dst keeps whatever defaults it was seeded with.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// stationList flattens the station map into a code-ordered slice so
// responses are deterministic.
func stationList(stations map[string]*types.Station) []*types.Station {
	codes := make([]string, 0, len(stations))
	for code := range stations {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]*types.Station, 0, len(codes))
	for _, code := range codes {
		out = append(out, stations[code])
	}
	return out
}

// NetworkBuilder assembles the rail network from the configured CSV
// exports and installs it on sessions that lack one.
type NetworkBuilder struct {
	cfg *config.Config
}

// NewNetworkBuilder creates a builder bound to the configured data files
func NewNetworkBuilder(cfg *config.Config) *NetworkBuilder {
	return &NetworkBuilder{cfg: cfg}
}

// Build loads and augments the network from the configured files
func (b *NetworkBuilder) Build() (map[string]*types.Station, []types.Section, error) {
	return network.Assemble(network.AssembleOptions{
		CoordStationsCSV: b.cfg.Data.CoordStationsCSV,
		StationsCSV:      b.cfg.Data.StationsCSV,
		SectionsCSV:      b.cfg.Data.SectionsCSV,
		KNearest:         b.cfg.Data.KNearest,
		AvgSpeedKmph:     b.cfg.Data.AvgSpeedKmph,
	})
}

// Ensure loads the network into the session if it does not carry one
// yet. Sessions populated by a simulation run keep their copy.
func (b *NetworkBuilder) Ensure(sess *session.Session) error {
	if sess.HasNetwork() {
		return nil
	}

	stations, sections, err := b.Build()
	if err != nil {
		return err
	}
	sess.LoadNetwork(stations, sections)
	return nil
}
