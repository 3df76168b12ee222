package repository

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFilterDoc(t *testing.T) {
	assert.Equal(t, bson.M{}, filterDoc(Filter{}))

	doc := filterDoc(Filter{Keyword: "Camera (v2)"})
	re, ok := doc["name"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, "i", re.Options)
	assert.Equal(t, regexp.QuoteMeta("Camera (v2)"), re.Pattern)

	compiled := regexp.MustCompile("(?i)" + re.Pattern)
	assert.True(t, compiled.MatchString("new camera (V2) body"))
	assert.False(t, compiled.MatchString("camera v2"))
}

func TestVersionFilter(t *testing.T) {
	id := primitive.NewObjectID()

	assert.Equal(t, bson.M{"_id": id, "version": int64(3)}, versionFilter(id, 3))
	assert.Equal(t, bson.M{
		"_id":     id,
		"version": bson.M{"$in": bson.A{int64(0), nil}},
	}, versionFilter(id, 0))
}
