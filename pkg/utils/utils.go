package utils

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const letters = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	randLock sync.Mutex
	randSrc  = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandStr product random string
func RandStr(length int) string {
	randLock.Lock()
	defer randLock.Unlock()
	result := make([]byte, length)
	for i := range result {
		result[i] = letters[randSrc.Intn(len(letters))]
	}
	return string(result)
}

// Hash first 16 bytes of sha256, hex encoded
func Hash(s string) string {
	h := sha256.New()
	h.Write([]byte(s))
	bs := h.Sum(nil)
	return fmt.Sprintf("%x", bs[:16])
}

func TimestampS() int64 {
	return time.Now().Unix()
}

func String(s string) *string {
	return &s
}

func Int32(v int32) *int32 {
	return &v
}

func Float32(v float32) *float32 {
	return &v
}

func Bool(v bool) *bool {
	return &v
}

// MapToStruct map to struct
func MapToStruct(m map[string]interface{}, s interface{}) error {
	jsonData, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, s)
}
