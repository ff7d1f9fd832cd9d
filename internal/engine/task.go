package engine

// FileTask is one enumerated source file. Tasks are immutable and never
// persisted: resume state is re-derived every run from destination sizes.
type FileTask struct {
	SrcPath string // absolute source path
	RelPath string // path relative to the source root
	Size    int64  // source size in bytes at enumeration time
}
