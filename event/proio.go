package event

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/proio-org/go-proio"
	"github.com/proio-org/go-proio-pb/model/eic"

	"github.com/decibelcooper/dileptonqc/mcutil"
)

// ProIOOptions selects the generator records of ProIO files.
type ProIOOptions struct {
	ParticleTag string
	StableTag   string
	RunNumber   int
}

func DefaultProIOOptions() ProIOOptions {
	return ProIOOptions{ParticleTag: "Particle", StableTag: "GenStable"}
}

// ProIOSource reads generator-level particles from a ProIO stream. The
// EIC track model carries no impact parameters or PID, so events from
// this source only feed the generated-pair histograms.
type ProIOSource struct {
	reader *proio.Reader
	events <-chan *proio.Event
	opts   ProIOOptions
	count  int
}

func OpenProIO(path string, opts ProIOOptions) (*ProIOSource, error) {
	reader, err := proio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open proio file %s: %w", path, err)
	}
	return &ProIOSource{reader: reader, events: reader.ScanEvents(), opts: opts}, nil
}

// Close discards unread events so the scanning goroutine exits, then
// closes the file.
func (s *ProIOSource) Close() error {
	for range s.events {
	}
	s.reader.Close()
	return nil
}

func (s *ProIOSource) Next(ctx context.Context) (*Event, error) {
	var event *proio.Event
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case e, ok := <-s.events:
		if !ok {
			return nil, io.EOF
		}
		event = e
	}

	ev := &Event{Collision: Collision{
		GlobalIndex: s.count,
		RunNumber:   s.opts.RunNumber,
		MCEventID:   s.count,
		Selection:   math.MaxUint32,
		Occupancy:   -1,
	}}
	s.count++

	stable := make(map[uint64]bool)
	for _, id := range event.TaggedEntries(s.opts.StableTag) {
		stable[id] = true
	}

	ids := event.TaggedEntries(s.opts.ParticleTag)
	if len(ids) == 0 {
		ids = event.TaggedEntries(s.opts.StableTag)
	}
	index := make(map[uint64]int, len(ids))
	parts := make([]*eic.Particle, 0, len(ids))
	partIDs := make([]uint64, 0, len(ids))
	for _, id := range ids {
		part, ok := event.GetEntry(id).(*eic.Particle)
		if !ok {
			continue
		}
		index[id] = len(parts)
		parts = append(parts, part)
		partIDs = append(partIDs, id)
	}

	ev.MC = make(mcutil.Particles, len(parts))
	for i, part := range parts {
		px := float64(part.GetP().GetX())
		py := float64(part.GetP().GetY())
		pz := float64(part.GetP().GetZ())
		m := float64(part.GetMass())
		p := mcutil.NewParticle(i, int(part.GetPdg()), px, py, pz, math.Sqrt(px*px+py*py+pz*pz+m*m))
		p.EventID = ev.Collision.MCEventID
		p.ProducedByGenerator = true
		p.PhysicalPrimary = stable[partIDs[i]]
		for _, parent := range part.GetParent() {
			if j, ok := index[parent]; ok {
				p.Mothers = append(p.Mothers, j)
			}
		}
		for _, child := range part.GetChild() {
			if j, ok := index[child]; ok {
				p.Daughters = append(p.Daughters, j)
			}
		}
		ev.MC[i] = p
	}
	return ev, nil
}
