package utils

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const lineTerminatorConstant = "\n"

// FlushingWriter serializes writes from concurrent workers and flushes buffered destinations after each write.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. Writers that are already wrapped are returned unchanged.
func NewFlushingWriter(writer io.Writer) *FlushingWriter {
	if existing, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return existing
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the underlying writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return len(data), nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	return flushingWriter.writeLocked(data)
}

// WriteLine formats a message and writes it as one complete line, so lines from different workers never interleave.
func (flushingWriter *FlushingWriter) WriteLine(format string, arguments ...any) error {
	message := fmt.Sprintf(format, arguments...)
	if !strings.HasSuffix(message, lineTerminatorConstant) {
		message += lineTerminatorConstant
	}
	_, writeError := flushingWriter.Write([]byte(message))
	return writeError
}

func (flushingWriter *FlushingWriter) writeLocked(data []byte) (int, error) {
	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if flushableWriter, implementsFlush := flushingWriter.writer.(interface{ Flush() error }); implementsFlush {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}

	return bytesWritten, nil
}
