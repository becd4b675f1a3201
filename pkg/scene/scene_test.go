package scene

import (
	"testing"

	"github.com/opennoise/raypath/pkg/geo"
)

func TestInEnvelopeAcceptsEverythingWhenUnset(t *testing.T) {
	b := NewBuilder()
	sc, _ := b.Finish(geo.Polygon{})
	if !sc.InEnvelope(geo.Pt(1e6, -1e6)) {
		t.Fatalf("expected a scene built without an envelope to accept any position")
	}
}

func TestInEnvelopeRejectsOutsidePosition(t *testing.T) {
	b := NewBuilder()
	envelope := geo.NewPolygon(geo.Pt(0, 0), geo.Pt(10, 0), geo.Pt(10, 10), geo.Pt(0, 10))
	sc, _ := b.Finish(envelope)
	if !sc.InEnvelope(geo.Pt(5, 5)) {
		t.Fatalf("expected interior position to be in range")
	}
	if sc.InEnvelope(geo.Pt(50, 50)) {
		t.Fatalf("expected exterior position to be out of range")
	}
}
