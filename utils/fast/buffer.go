package fast

// buffer.go provides a lightweight wrapper around byte slices for framing
// fixed-size records.
//
// The Reader performs NO bounds checking (it panics if you read past the end);
// callers validate lengths up front, e.g. "len % 8 == 0" before reading records.

type Reader struct {
	buf    []byte
	offset int
}

type Writer struct {
	buf []byte
}

// NewReader creates a Reader to consume the provided byte slice.
func NewReader(bb []byte) *Reader {
	return &Reader{
		buf: bb,
	}
}

// NewWriter creates a Writer that appends to the provided initial slice.
// Usually called with `make([]byte, 0, n*recordSize)`.
func NewWriter(bb []byte) *Writer {
	return &Writer{
		buf: bb,
	}
}

// Write appends a slice of bytes.
func (b *Writer) Write(v []byte) {
	b.buf = append(b.buf, v...)
}

// Bytes returns the accumulated content of the Writer.
func (b *Writer) Bytes() []byte {
	return b.buf
}

// Read consumes and returns the next n bytes. The result shares memory with the buffer.
func (b *Reader) Read(n int) []byte {
	res := b.buf[b.offset : b.offset+n]
	b.offset += n
	return res
}

// Remaining returns the number of unread bytes.
func (b *Reader) Remaining() int {
	return len(b.buf) - b.offset
}

// Empty reports whether every byte has been consumed.
func (b *Reader) Empty() bool {
	return b.Remaining() == 0
}
