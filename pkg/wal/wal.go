package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const fileMode os.FileMode = 0644

var (
	// ErrCorrupted 完整的一行無法解析，或序號不連續
	ErrCorrupted = errors.New("wal: corrupted log")
	// ErrClosed WAL 已關閉
	ErrClosed = errors.New("wal: closed")
)

// Record 一行紀錄，Seq 從 1 開始連續遞增
type Record struct {
	Seq  uint64          `json:"seq"`
	Data json.RawMessage `json:"data"`
}

// WAL 以 JSON Lines 追加寫入的日誌檔
//
// 每次 Append 都會 fsync。開檔時若最後一行沒有換行 (寫到一半當機)，
// 該行會被截掉，之前的紀錄不受影響。
type WAL struct {
	path string
	file *os.File
	mu   sync.Mutex
	seq  uint64
	size int64
}

// Open 開啟或建立 WAL 檔案並檢查既有內容
//
// 參數:
//
//	path: string - 檔案路徑
//
// 回傳:
//
//	*WAL: WAL 實例
//	error: 開檔失敗或內容損毀 (ErrCorrupted)
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, fileMode)
	if err != nil {
		return nil, err
	}
	w := &WAL{path: path, file: file}

	seq, good, err := scan(file, nil)
	if err != nil {
		file.Close()
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() > good {
		if err := file.Truncate(good); err != nil {
			file.Close()
			return nil, fmt.Errorf("truncate torn tail: %w", err)
		}
	}
	w.seq = seq
	w.size = good
	return w, nil
}

// Append 寫入一筆資料並刷入硬碟，回傳該筆的序號
func (w *WAL) Append(v any) (uint64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return 0, ErrClosed
	}

	line, err := encodeLine(w.seq+1, data)
	if err != nil {
		return 0, err
	}
	n, err := w.file.Write(line)
	if err != nil {
		return 0, err
	}
	if err := w.file.Sync(); err != nil {
		return 0, err
	}
	w.seq++
	w.size += int64(n)
	return w.seq, nil
}

// Replay 依序號順序讀取所有紀錄
func (w *WAL) Replay(fn func(rec Record) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	_, _, err := scan(w.file, fn)
	return err
}

// Rewrite 以 emit 產生的紀錄取代整個檔案 (compaction)
//
// 新檔先寫到暫存檔並 fsync，再 rename 覆蓋原檔；序號從 1 重新開始。
// emit 回傳錯誤時原檔不變。
func (w *WAL) Rewrite(fn func(emit func(v any) error) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}

	tmpPath := w.path + ".compact"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return err
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	writer := bufio.NewWriter(tmp)
	var seq uint64
	var size int64
	emit := func(v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		line, err := encodeLine(seq+1, data)
		if err != nil {
			return err
		}
		n, err := writer.Write(line)
		if err != nil {
			return err
		}
		seq++
		size += int64(n)
		return nil
	}
	if err := fn(emit); err != nil {
		cleanup()
		return err
	}
	if err := writer.Flush(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_RDWR, fileMode)
	if err != nil {
		return err
	}
	w.file.Close()
	w.file = file
	w.seq = seq
	w.size = size
	return nil
}

// Seq 最後一筆紀錄的序號，也就是目前的紀錄筆數
func (w *WAL) Seq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// Size 目前檔案大小 (bytes)
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Close 關閉檔案，重複呼叫回傳 ErrClosed
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func encodeLine(seq uint64, data []byte) ([]byte, error) {
	line, err := json.Marshal(Record{Seq: seq, Data: data})
	if err != nil {
		return nil, err
	}
	return append(line, '\n'), nil
}

// scan 從頭讀取檔案，回傳最後序號與最後一個完整行結尾的 offset
// 沒有換行結尾的最後一行視為寫到一半，不算損毀也不交給 fn
func scan(file *os.File, fn func(rec Record) error) (uint64, int64, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}

	reader := bufio.NewReader(file)
	var seq uint64
	var offset int64
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			return seq, offset, nil
		}
		if err != nil {
			return 0, 0, err
		}

		var rec Record
		if err := json.Unmarshal(bytes.TrimSpace(line), &rec); err != nil {
			return 0, 0, fmt.Errorf("%w: offset %d: %v", ErrCorrupted, offset, err)
		}
		if rec.Seq != seq+1 {
			return 0, 0, fmt.Errorf("%w: offset %d: seq %d after %d", ErrCorrupted, offset, rec.Seq, seq)
		}
		if fn != nil {
			if err := fn(rec); err != nil {
				return 0, 0, err
			}
		}
		seq = rec.Seq
		offset += int64(len(line))
	}
}
