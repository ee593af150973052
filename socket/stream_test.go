package socket

import (
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	redis "github.com/go-redis/redis/v8"
)

// trackingConn records overlapping WriteMessage calls.
type trackingConn struct {
	writing int32
	overlap int32
	writes  int32
}

func (c *trackingConn) WriteMessage(messageType int, data []byte) error {
	if !atomic.CompareAndSwapInt32(&c.writing, 0, 1) {
		atomic.AddInt32(&c.overlap, 1)
		return nil
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&c.writes, 1)
	atomic.StoreInt32(&c.writing, 0)
	return nil
}

func (c *trackingConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestWriteLoopSerializesForwardedFramesAndPongs(t *testing.T) {

	s := NewStream(nil, nil, nil, nil, log.New(io.Discard, "", 0))
	conn := &trackingConn{}

	frames := make(chan *redis.Message)
	pongs := make(chan struct{})
	done := make(chan struct{})

	var producers sync.WaitGroup
	producers.Add(2)
	go func() {
		defer producers.Done()
		for i := 0; i < 50; i++ {
			frames <- &redis.Message{Channel: "ch", Payload: `{"Event":"e"}`}
		}
	}()
	go func() {
		defer producers.Done()
		for i := 0; i < 50; i++ {
			pongs <- struct{}{}
		}
	}()

	loopDone := make(chan struct{})
	go func() {
		s.writeLoop(conn, frames, pongs, done)
		close(loopDone)
	}()

	producers.Wait()
	close(done)
	<-loopDone

	if got := atomic.LoadInt32(&conn.overlap); got != 0 {
		t.Fatalf("expected every write serialized, %d overlapped", got)
	}
	if got := atomic.LoadInt32(&conn.writes); got != 100 {
		t.Fatalf("expected 100 writes, got %d", got)
	}
}
