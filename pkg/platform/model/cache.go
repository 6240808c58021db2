package model

// CacheRow is one entry of a platform cache bin. Data holds the payload
// exactly as stored; Serialized reports whether the platform serialized the
// payload before storing it or stored a raw string.
type CacheRow struct {
	CID        string
	Data       []byte
	Expire     int64
	Created    float64
	Serialized bool
}
