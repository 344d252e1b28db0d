package sco

import (
	"testing"

	"github.com/bthost/sco/hci/evt"
)

func TestSupportsLinkType(t *testing.T) {
	for i, p := range []ConnectionParams{ParamsS1(), ParamsS2(), ParamsS3(), ParamsS4()} {
		if !p.SupportsLinkType(evt.LinkTypeESCO) {
			t.Errorf("S%d must support eSCO", i+1)
		}
		if p.SupportsLinkType(evt.LinkTypeSCO) {
			t.Errorf("S%d must not support SCO", i+1)
		}
	}
	d1 := ParamsD1()
	if !d1.SupportsLinkType(evt.LinkTypeSCO) {
		t.Error("D1 must support SCO")
	}
	if d1.SupportsLinkType(evt.LinkTypeESCO) {
		t.Error("D1 must not support eSCO")
	}
	if d1.SupportsLinkType(evt.LinkTypeACL) {
		t.Error("no candidate supports ACL")
	}
}

func TestDefaultOpenParamsOrder(t *testing.T) {
	ps := DefaultOpenParams()
	if len(ps) != 5 {
		t.Fatalf("%d candidates, want 5", len(ps))
	}
	// Widest eSCO settings first, plain SCO as the last resort.
	for _, p := range ps[:4] {
		if !p.SupportsLinkType(evt.LinkTypeESCO) {
			t.Fatal("leading candidates must be eSCO")
		}
	}
	if !ps[4].SupportsLinkType(evt.LinkTypeSCO) {
		t.Fatal("final candidate must be SCO")
	}
}
