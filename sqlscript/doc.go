// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package sqlscript splits SQL seed scripts into executable statements.
//
// A script is first passed through a CommentFilter, which removes line
// comments, and then through a Scanner, which splits the text on semicolons:
//
//	sc, err := sqlscript.Open(f, "--")
//	if err != nil {
//	    return err
//	}
//	defer sc.Close()
//	for stmt := range sc.All() {
//	    if _, err := db.ExecContext(ctx, stmt); err != nil {
//	        return err
//	    }
//	}
//	if err := sc.Err(); err != nil {
//	    return err
//	}
//
// The dialect is deliberately small. A semicolon always ends a statement,
// even inside a quoted string, and block comments are not recognized.
// Text following the last semicolon is ignored.
package sqlscript
