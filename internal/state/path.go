package state

import (
	"strconv"
	"strings"
)

// ErrorKind tags the taxonomy of path-resolution failures.
type ErrorKind int

const (
	KeyMissing ErrorKind = iota
	IndexOutOfRange
	NotContainer
	BadIndex
	EmptyPath
)

func (k ErrorKind) String() string {
	switch k {
	case KeyMissing:
		return "KeyMissing"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case NotContainer:
		return "NotContainer"
	case BadIndex:
		return "BadIndex"
	case EmptyPath:
		return "EmptyPath"
	default:
		return "UnknownError"
	}
}

// PathError reports a failed get/set against the state tree.
type PathError struct {
	Kind ErrorKind
	Path string
}

func (e *PathError) Error() string {
	return e.Kind.String() + ": " + e.Path
}

// splitPath breaks path on sep, dropping empty segments. The default
// separator is "/".
func splitPath(path, sep string) []string {
	if sep == "" {
		sep = "/"
	}
	raw := strings.Split(path, sep)
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// isIndex reports whether segment parses as a non-negative sequence index.
func isIndex(segment string) (int, bool) {
	n, err := strconv.Atoi(segment)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// resolveGet walks v following segments, returning the value at the end of
// the path or a PathError naming the first segment that could not resolve.
func resolveGet(v Value, segments []string, fullPath string) (Value, error) {
	if len(segments) == 0 {
		return v, nil
	}
	seg := segments[0]
	switch v.Kind {
	case KindMap:
		next, ok := v.Map[seg]
		if !ok {
			return Value{}, &PathError{Kind: KeyMissing, Path: fullPath}
		}
		return resolveGet(next, segments[1:], fullPath)
	case KindSeq:
		idx, ok := isIndex(seg)
		if !ok {
			return Value{}, &PathError{Kind: BadIndex, Path: fullPath}
		}
		if idx < 0 || idx >= len(v.Seq) {
			return Value{}, &PathError{Kind: IndexOutOfRange, Path: fullPath}
		}
		return resolveGet(v.Seq[idx], segments[1:], fullPath)
	default:
		return Value{}, &PathError{Kind: NotContainer, Path: fullPath}
	}
}

// resolveSet walks v to the parent of the final segment and assigns it,
// returning the (possibly copied) new root value.
func resolveSet(v Value, segments []string, val Value, fullPath string) (Value, error) {
	if len(segments) == 0 {
		return Value{}, &PathError{Kind: EmptyPath, Path: fullPath}
	}
	seg := segments[0]
	last := len(segments) == 1

	switch v.Kind {
	case KindMap:
		if last {
			v.Map[seg] = val
			return v, nil
		}
		next, ok := v.Map[seg]
		if !ok {
			return Value{}, &PathError{Kind: KeyMissing, Path: fullPath}
		}
		updated, err := resolveSet(next, segments[1:], val, fullPath)
		if err != nil {
			return Value{}, err
		}
		v.Map[seg] = updated
		return v, nil
	case KindSeq:
		idx, ok := isIndex(seg)
		if !ok {
			return Value{}, &PathError{Kind: BadIndex, Path: fullPath}
		}
		if idx < 0 || idx >= len(v.Seq) {
			return Value{}, &PathError{Kind: IndexOutOfRange, Path: fullPath}
		}
		if last {
			v.Seq[idx] = val
			return v, nil
		}
		updated, err := resolveSet(v.Seq[idx], segments[1:], val, fullPath)
		if err != nil {
			return Value{}, err
		}
		v.Seq[idx] = updated
		return v, nil
	default:
		return Value{}, &PathError{Kind: NotContainer, Path: fullPath}
	}
}
