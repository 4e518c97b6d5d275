package streamio

import (
	"compress/zlib"
	"io"
	"sync"
)

var (
	zlibReaderPool = sync.Pool{
		New: func() any { return &ZlibReader{} },
	}
	zlibWriterPool = sync.Pool{
		New: func() any {
			w := zlib.NewWriter(io.Discard)
			return &ZlibWriter{Writer: w}
		},
	}
)

type ZlibReader struct {
	Reader io.ReadCloser
}

// GetZlibReader returns a ZlibReader managed by a sync.Pool, reset onto
// r. After use, put it back with PutZlibReader.
func GetZlibReader(r io.Reader) (*ZlibReader, error) {
	z := zlibReaderPool.Get().(*ZlibReader)
	rc, err := zlib.NewReader(r)
	if err != nil {
		zlibReaderPool.Put(z)
		return nil, err
	}
	z.Reader = rc
	return z, nil
}

// PutZlibReader closes the underlying reader and returns z to its pool.
func PutZlibReader(z *ZlibReader) {
	if z.Reader != nil {
		_ = z.Reader.Close()
	}
	zlibReaderPool.Put(z)
}

type ZlibWriter struct {
	*zlib.Writer
}

// GetZlibWriter returns a ZlibWriter managed by a sync.Pool, reset onto
// w. After use, put it back with PutZlibWriter.
func GetZlibWriter(w io.Writer) *ZlibWriter {
	z := zlibWriterPool.Get().(*ZlibWriter)
	z.Writer.Reset(w)
	return z
}

// PutZlibWriter flushes and returns w to its pool.
func PutZlibWriter(w *ZlibWriter) {
	_ = w.Writer.Close()
	zlibWriterPool.Put(w)
}
