package outcome

import "testing"

func TestLog_AppendPreservesOrder(t *testing.T) {
	l := NewLog()
	l.Append(Record{Time: 0.1, Kind: PacketDelivered, Round: 0, Node: 3, Hops: 2})
	l.Append(Record{Time: 0.2, Kind: NodeDied, Round: 0, Node: 7})
	l.Append(Record{Time: 1.0, Kind: RoundCompleted, Round: 0, Node: -1})

	if l.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", l.Len())
	}
	recs := l.Records()
	if recs[0].Kind != PacketDelivered || recs[1].Kind != NodeDied || recs[2].Kind != RoundCompleted {
		t.Errorf("records out of order: %v", recs)
	}
}

func TestLog_SubscribersStreamInOrder(t *testing.T) {
	// GIVEN two subscribers registered before any append
	l := NewLog()
	var first, second []Kind
	l.Subscribe(func(r Record) { first = append(first, r.Kind) })
	l.Subscribe(func(r Record) { second = append(second, r.Kind) })

	// WHEN records are appended
	l.Append(Record{Kind: PacketDropped, Node: 1, Detail: "no_route"})
	l.Append(Record{Kind: NodeDied, Node: 1})

	// THEN both observe every record in append order
	for _, got := range [][]Kind{first, second} {
		if len(got) != 2 || got[0] != PacketDropped || got[1] != NodeDied {
			t.Fatalf("subscriber saw %v, want [packet_dropped node_died]", got)
		}
	}
}

func TestRecord_StringStable(t *testing.T) {
	r := Record{Time: 0.4, Kind: PacketDelivered, Round: 12, Node: 5, Hops: 3, Detail: ""}
	want := "t=0.4000 kind=packet_delivered round=12 node=5 hops=3 detail="
	if got := r.String(); got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestLog_StringOneLinePerRecord(t *testing.T) {
	l := NewLog()
	l.Append(Record{Time: 0.1, Kind: NodeDied, Round: 2, Node: 9})
	l.Append(Record{Time: 0.95, Kind: RoundCompleted, Round: 2, Node: -1})
	want := "t=0.1000 kind=node_died round=2 node=9 hops=0 detail=\n" +
		"t=0.9500 kind=round_completed round=2 node=-1 hops=0 detail=\n"
	if got := l.String(); got != want {
		t.Errorf("String:\ngot  %q\nwant %q", got, want)
	}
}
