package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandStr(t *testing.T) {
	length := 64
	randStr := RandStr(length)
	assert.Equal(t, length, len(randStr))
	assert.NotEqual(t, randStr, RandStr(length))
}

func TestHash(t *testing.T) {
	s := "dddddd"
	hash := Hash(s)
	assert.Equal(t, 32, len(hash))
	assert.Equal(t, hash, Hash(s))
}

func TestPassword(t *testing.T) {
	hash, err := EncryptPassword("secret")
	assert.Nil(t, err)
	assert.True(t, MatchPassword("secret", hash))
	assert.False(t, MatchPassword("other", hash))
}

func TestMapToStruct(t *testing.T) {
	var v struct {
		VpcId string `json:"vpcId"`
	}
	assert.Nil(t, MapToStruct(map[string]interface{}{"vpcId": "vpc-1"}, &v))
	assert.Equal(t, "vpc-1", v.VpcId)
}
