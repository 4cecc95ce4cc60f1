package tree

import "golang.org/x/xerrors"

var (
	// ErrCorruptTree is wrapped by the decoding failures of node blocks:
	// unknown entry tags, truncated entries, trailing garbage and entries
	// out of order. Errors from a file state's own Read are returned as is
	ErrCorruptTree = xerrors.New("dirstate tree: corrupt tree data")
)
