package store

import "fmt"

// DataLoadError reports a dataset that cannot be ingested. Encoding is the
// detected block-compression scheme when that is the cause; the message
// always carries remediation text the UI can show verbatim.
type DataLoadError struct {
	Encoding string // "gzip", "zstd", ... ; empty for malformed content
	Reason   string
}

func (e *DataLoadError) Error() string {
	if e.Encoding != "" {
		return fmt.Sprintf("cannot load dataset: %s-compressed input is not supported (%s); re-export the file uncompressed and try again", e.Encoding, e.Reason)
	}
	return fmt.Sprintf("cannot load dataset: %s", e.Reason)
}
