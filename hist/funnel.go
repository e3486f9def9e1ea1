package hist

type fill struct {
	name   string
	values []float64
}

// Funnel serializes fills from many goroutines into a single Sink.
type Funnel struct {
	dst  Sink
	ch   chan fill
	done chan struct{}
}

func NewFunnel(dst Sink, buffer int) *Funnel {
	f := &Funnel{
		dst:  dst,
		ch:   make(chan fill, buffer),
		done: make(chan struct{}),
	}
	go f.loop()
	return f
}

func (f *Funnel) loop() {
	defer close(f.done)
	for fl := range f.ch {
		f.dst.Fill(fl.name, fl.values...)
	}
}

func (f *Funnel) Fill(name string, values ...float64) {
	f.ch <- fill{name: name, values: append([]float64(nil), values...)}
}

// Close waits until every pending fill reached the destination. Fill
// must not be called afterwards.
func (f *Funnel) Close() {
	close(f.ch)
	<-f.done
}
