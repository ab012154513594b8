package config

import "io"

func UseColor(w io.Writer) bool {
	return useColor(w)
}
