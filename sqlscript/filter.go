// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlscript

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultCommentPrefix starts a line comment in seed scripts.
const DefaultCommentPrefix = "--"

// CommentFilter is a reader that strips line comments from its input.
//
// Everything from the comment prefix up to the end of the line is removed.
// Line terminators (\n, \r\n and \r) are normalized to a single \n, and an
// unterminated final line is terminated. A line that is entirely comment
// becomes an empty line, so line numbers are preserved.
type CommentFilter struct {
	r      io.Reader
	src    io.Reader
	closed bool
}

// NewCommentFilter returns a CommentFilter reading from r.
// The prefix must not be empty.
func NewCommentFilter(r io.Reader, prefix string) (*CommentFilter, error) {
	if prefix == "" {
		return nil, fmt.Errorf("comment prefix: %w", ErrInvalidArgument)
	}
	if r == nil {
		return nil, fmt.Errorf("nil reader: %w", ErrInvalidArgument)
	}
	t := transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		&commentStripper{prefix: []byte(prefix)},
	)
	return &CommentFilter{
		r:   transform.NewReader(r, t),
		src: r,
	}, nil
}

// Read implements io.Reader. It returns io.EOF once the input is drained.
func (f *CommentFilter) Read(p []byte) (int, error) {
	if f.closed {
		return 0, io.EOF
	}
	return f.r.Read(p)
}

// Close closes the underlying reader if it is an io.Closer.
// Only the first call has any effect.
func (f *CommentFilter) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if c, ok := f.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// commentStripper is the transform.Transformer behind CommentFilter.
type commentStripper struct {
	prefix    []byte
	inComment bool // rest of the current line is discarded
	lineOpen  bool // bytes consumed since the last line terminator
}

func (t *commentStripper) Reset() {
	t.inComment, t.lineOpen = false, false
}

func (t *commentStripper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		if c == '\n' || c == '\r' {
			width := 1
			if c == '\r' {
				if nSrc+1 == len(src) && !atEOF {
					// need the next byte to tell \r from \r\n
					return nDst, nSrc, transform.ErrShortSrc
				}
				if nSrc+1 < len(src) && src[nSrc+1] == '\n' {
					width = 2
				}
			}
			if nDst == len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = '\n'
			nDst, nSrc = nDst+1, nSrc+width
			t.inComment, t.lineOpen = false, false
			continue
		}

		t.lineOpen = true
		if t.inComment {
			nSrc++
			continue
		}
		if c == t.prefix[0] {
			rest := src[nSrc:]
			if bytes.HasPrefix(rest, t.prefix) {
				t.inComment = true
				nSrc += len(t.prefix)
				continue
			}
			if !atEOF && len(rest) < len(t.prefix) && bytes.HasPrefix(t.prefix, rest) {
				return nDst, nSrc, transform.ErrShortSrc
			}
		}
		if nDst == len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = c
		nDst, nSrc = nDst+1, nSrc+1
	}

	if atEOF && t.lineOpen {
		if nDst == len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = '\n'
		nDst++
		t.inComment, t.lineOpen = false, false
	}
	return nDst, nSrc, nil
}
