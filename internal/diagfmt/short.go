package diagfmt

import (
	"fmt"
	"io"

	"gxpc/internal/diag"
)

// Short writes one line per diagnostic, in position order:
// "<relpath>:<sl>:<sc>:<el>:<ec>: <message>".
func Short(w io.Writer, s diag.Set, baseDir string) error {
	for _, d := range s.Sorted() {
		if _, err := fmt.Fprintln(w, diag.Render(d, baseDir)); err != nil {
			return err
		}
	}
	return nil
}
