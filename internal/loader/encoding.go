package loader

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

type textDecoder struct {
	name   string
	decode func([]byte) (string, error)
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid utf-8")
	}
	return string(data), nil
}

// Exports from spreadsheet tools on Windows are the usual non-UTF-8 case.
func defaultTextDecoders() []textDecoder {
	return []textDecoder{
		{name: "utf-8", decode: decodeUTF8},
		{name: "windows-1252", decode: func(b []byte) (string, error) { return charmap.Windows1252.NewDecoder().String(string(b)) }},
		{name: "latin1", decode: func(b []byte) (string, error) { return charmap.ISO8859_1.NewDecoder().String(string(b)) }},
	}
}

// decodeText returns data as a UTF-8 string together with the name of the
// encoding that decoded it. A leading UTF-8 byte order mark is dropped.
func decodeText(data []byte) (string, string, error) {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	for _, dec := range defaultTextDecoders() {
		text, err := dec.decode(data)
		if err != nil {
			continue
		}
		return text, dec.name, nil
	}
	return "", "", fmt.Errorf("unable to decode input with supported encodings")
}
