package types

// TowerRecord is one row of the OpenCelliD tower export.
// Radio holds the raw technology name (GSM, LTE, ...) until the cleaner
// remaps it to a generation label.
type TowerRecord struct {
	Radio string
	MCC   int
	MNC   int
	LAC   int64
	CID   int64

	Lon float64
	Lat float64

	Range         int64
	Samples       int64
	Changeable    int // 0 = location supplied by the operator, 1 = inferred from samples
	AverageSignal int64

	Created int64 // unix seconds
	Updated int64
}

// OperatorMapping maps an (MCC, MNC) pair to an operator and telecom circle.
// Several pairs may point at the same operator/circle.
type OperatorMapping struct {
	MCC      int
	MNC      int
	Operator string
	Circle   string
}

// NetworkKey is the join key between towers and operator mappings.
type NetworkKey struct {
	MCC int
	MNC int
}

// Key returns the join key for the tower.
func (t TowerRecord) Key() NetworkKey { return NetworkKey{MCC: t.MCC, MNC: t.MNC} }

// Key returns the join key for the mapping.
func (m OperatorMapping) Key() NetworkKey { return NetworkKey{MCC: m.MCC, MNC: m.MNC} }

// JoinedRecord is a tower left-joined with its operator mapping. Matched is
// false when no mapping exists for the tower's key; Operator and Circle are
// empty in that case.
type JoinedRecord struct {
	TowerRecord
	Operator string
	Circle   string
	Matched  bool
}

// Record is a corrected, analysis-ready tower row. It carries exactly the
// columns consumed by the aggregator and the renderers.
type Record struct {
	Radio    string
	MCC      int
	MNC      int
	CID      int64
	Lon      float64
	Lat      float64
	Operator string
	Circle   string
}

// Columns is the header of the corrected table, in output order.
var Columns = []string{"radio", "mcc", "mnc", "cid", "long", "lat", "operator", "circle"}

// Bounds is a closed [Lower, Upper] interval.
type Bounds struct {
	Lower float64
	Upper float64
}

// Contains reports whether v lies inside the closed interval.
func (b Bounds) Contains(v float64) bool { return v >= b.Lower && v <= b.Upper }

// CircleTable is the trimmed record set of one canonical telecom circle.
type CircleTable struct {
	Circle  string // canonical circle name, e.g. "Delhi & NCR"
	Label   string // short display label, e.g. "Delhi NCR"
	LatBand Bounds
	LonBand Bounds
	Records []Record
}
