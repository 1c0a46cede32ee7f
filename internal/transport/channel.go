package transport

import (
	"bytes"
	"compress/gzip"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// readChunkSize is the fixed receive buffer size. Reads accumulate in
// chunks of at most this many bytes, both while hunting for the header
// delimiter and while draining the declared body length.
const readChunkSize = 2048

// HeaderDelimiter separates the HTTP header section from the body.
var HeaderDelimiter = []byte("\r\n\r\n")

// Channel owns one encrypted socket to a single host:port for the lifetime
// of a crawl run. It is not safe for concurrent use and never needs to be:
// the crawl issues exactly one request at a time.
type Channel struct {
	conn net.Conn

	// pending holds bytes read past the end of the previous response.
	// The connection is keep-alive, so over-read bytes belong to the
	// next response and must not be dropped.
	pending []byte
}

// Dial establishes a TLS-wrapped TCP connection to host:port using the
// platform's default trust store. DNS resolution and handshake failures
// are reported as ErrConnection.
func Dial(host string, port int) (*Channel, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, addr, err)
	}
	return &Channel{conn: conn}, nil
}

// NewChannel wraps an already-established connection.
//
// Design decision: We expose this alongside Dial because the framing logic
// is independent of TLS. Tests drive ReceiveUntil over a net.Pipe end
// without standing up a TLS listener.
func NewChannel(conn net.Conn) *Channel {
	return &Channel{conn: conn}
}

// SendAll writes the complete buffer, blocking until done.
// A short or broken write is reported as ErrConnection.
func (c *Channel) SendAll(data []byte) error {
	if c.conn == nil {
		return ErrClosed
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("%w: send: %v", ErrConnection, err)
	}
	return nil
}

// ReceiveUntil reads in fixed-size chunks until delimiter first appears,
// then reads exactly Content-Length further bytes of body and returns the
// full header+delimiter+body sequence.
//
// A gzip-compressed body (detected by magic bytes) is decompressed before
// being returned; anything else passes through untouched.
//
// If the header section carries no parseable Content-Length, the call
// fails with ErrProtocol: body-length accounting would otherwise be
// undefined, and guessing which responses may omit the header is worse
// than failing the request.
func (c *Channel) ReceiveUntil(delimiter []byte) ([]byte, error) {
	if c.conn == nil {
		return nil, ErrClosed
	}

	buf := make([]byte, 0, readChunkSize)
	if len(c.pending) > 0 {
		buf = append(buf, c.pending...)
		c.pending = nil
	}
	chunk := make([]byte, readChunkSize)
	for !bytes.Contains(buf, delimiter) {
		n, err := c.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: receive: %v", ErrConnection, err)
		}
	}

	idx := bytes.Index(buf, delimiter)
	if idx < 0 {
		// Peer closed before completing the header section. Hand back
		// what we have; the response parser tolerates the degenerate form.
		return buf, nil
	}

	header := buf[:idx+len(delimiter)]
	body := buf[idx+len(delimiter):]

	length, err := contentLength(buf[:idx])
	if err != nil {
		return nil, err
	}

	if len(body) > length {
		c.pending = append(c.pending, body[length:]...)
		body = body[:length]
	}

	for len(body) < length {
		// Each chunk is sized at most the remaining need so we never
		// consume bytes belonging to the next response on the keep-alive
		// connection.
		need := length - len(body)
		if need > readChunkSize {
			need = readChunkSize
		}
		n, err := c.conn.Read(chunk[:need])
		if n > 0 {
			body = append(body, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: receive body: %v", ErrConnection, err)
		}
	}

	return append(header, decompressIfGzip(body)...), nil
}

// Close releases the underlying socket. Safe to call more than once.
func (c *Channel) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return fmt.Errorf("%w: close: %v", ErrConnection, err)
	}
	return nil
}

// contentLength extracts the Content-Length value from a raw header
// section. Header name matching is case-insensitive here even though the
// parser above this layer keeps keys verbatim: framing must work whatever
// casing the server chose.
func contentLength(header []byte) (int, error) {
	for _, line := range strings.Split(string(header), "\r\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: unparseable Content-Length %q", ErrProtocol, strings.TrimSpace(value))
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: response header lacks Content-Length", ErrProtocol)
}

// gzipMagic is the two-byte prefix of every gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// decompressIfGzip transparently inflates a gzip body. Bodies that do not
// start with the gzip magic, or that fail to inflate, are returned as-is.
func decompressIfGzip(body []byte) []byte {
	if !bytes.HasPrefix(body, gzipMagic) {
		return body
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return body
	}
	defer zr.Close()

	inflated, err := io.ReadAll(zr)
	if err != nil {
		return body
	}
	return inflated
}
