package protocol

import "testing"

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()

	scratch.Output([]byte{1, 2, 3})
	if scratch.CurPosition() != 3 {
		t.Errorf("Expected position 3, got %d", scratch.CurPosition())
	}

	scratch.Output([]byte{4, 5})
	if scratch.CurPosition() != 5 {
		t.Errorf("Expected position 5, got %d", scratch.CurPosition())
	}

	scratch.Update(0, 99)
	if result := scratch.Result(); result[0] != 99 {
		t.Errorf("Expected first byte to be 99, got %d", result[0])
	}

	// past the write position is ignored
	scratch.Update(10, 42)
	if len(scratch.Result()) != 5 {
		t.Errorf("Update past the end changed the length")
	}

	since := scratch.DataSince(2)
	if len(since) != 3 || since[0] != 3 {
		t.Errorf("DataSince(2) failed: expected [3 4 5], got %v", since)
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 {
		t.Errorf("After reset, expected position 0, got %d", scratch.CurPosition())
	}
}

func TestScratchOutputTruncates(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageScratch+10))
	if scratch.CurPosition() != MessageScratch {
		t.Errorf("Expected position %d, got %d", MessageScratch, scratch.CurPosition())
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(10)

	if !fifo.IsEmpty() {
		t.Error("New FIFO should be empty")
	}

	written := fifo.Write([]byte{1, 2, 3, 4, 5})
	if written != 5 {
		t.Errorf("Expected to write 5 bytes, wrote %d", written)
	}
	if fifo.Available() != 5 || fifo.Free() != 4 {
		t.Errorf("Expected 5 available and 4 free, got %d and %d", fifo.Available(), fifo.Free())
	}

	readBuf := make([]byte, 3)
	if read := fifo.Read(readBuf); read != 3 {
		t.Errorf("Expected to read 3 bytes, read %d", read)
	}
	if readBuf[0] != 1 || readBuf[1] != 2 || readBuf[2] != 3 {
		t.Errorf("Read data mismatch: got %v", readBuf)
	}

	fifo.Reset()
	bigData := make([]byte, 12)
	for i := range bigData {
		bigData[i] = byte(i)
	}
	// size 10 holds 9, one slot is reserved
	if written = fifo.Write(bigData); written != 9 {
		t.Errorf("Expected to write 9 bytes to size-10 FIFO, wrote %d", written)
	}
}

func TestFifoBufferWriteAll(t *testing.T) {
	fifo := NewFifoBuffer(8)

	if !fifo.WriteAll([]byte{1, 2, 3, 4, 5}) {
		t.Fatal("WriteAll of 5 bytes into an empty size-8 FIFO failed")
	}
	if fifo.WriteAll([]byte{6, 7, 8}) {
		t.Error("WriteAll should refuse data that does not fit")
	}
	if fifo.Available() != 5 {
		t.Errorf("Refused WriteAll must not write, got %d available", fifo.Available())
	}
	if !fifo.WriteAll([]byte{6, 7}) {
		t.Error("WriteAll of exactly the free space failed")
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)

	fifo.Write([]byte{1, 2, 3, 4})
	fifo.Read(make([]byte, 2))

	if written := fifo.Write([]byte{5, 6}); written != 2 {
		t.Errorf("Expected to write 2 bytes, wrote %d", written)
	}

	allData := make([]byte, 4)
	if read := fifo.Read(allData); read != 4 {
		t.Errorf("Expected to read 4 bytes, read %d", read)
	}
	if allData[0] != 3 || allData[1] != 4 || allData[2] != 5 || allData[3] != 6 {
		t.Errorf("Wrap-around data mismatch: got %v", allData)
	}
}
