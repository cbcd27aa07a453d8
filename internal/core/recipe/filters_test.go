package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

type fakeProfiles struct {
	profile *Profile
	err     error
	calls   int
}

func (f *fakeProfiles) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	f.calls++
	return f.profile, f.err
}

func TestAgeBucket(t *testing.T) {
	assert.Equal(t, AgeChild, AgeBucket(0))
	assert.Equal(t, AgeChild, AgeBucket(12))
	assert.Equal(t, AgeAdult, AgeBucket(13))
	assert.Equal(t, AgeAdult, AgeBucket(59))
	assert.Equal(t, AgeOld, AgeBucket(60))
}

func TestResolveDefaults(t *testing.T) {
	t.Run("should use adult non-diabetic defaults without profile", func(t *testing.T) {
		fs := ResolveDefaults(nil)
		assert.Equal(t, []string{"breakfast", "lunch", "snacks", "dinner"}, fs.Times)
		assert.Equal(t, AgeAdult, fs.Age)
		assert.False(t, fs.Diabetic)
	})

	t.Run("should derive from profile", func(t *testing.T) {
		fs := ResolveDefaults(&Profile{Age: intPtr(72), Diabetic: boolPtr(true)})
		assert.Equal(t, AgeOld, fs.Age)
		assert.True(t, fs.Diabetic)
	})

	t.Run("should not share the meal time slice", func(t *testing.T) {
		fs := ResolveDefaults(nil)
		fs.Times[0] = "brunch"
		assert.Equal(t, "breakfast", MealTimes[0])
	})
}

func TestDefaultsFor(t *testing.T) {
	ctx := context.Background()

	t.Run("should skip lookup for anonymous users", func(t *testing.T) {
		reader := &fakeProfiles{profile: &Profile{Age: intPtr(8)}}
		fs := DefaultsFor(ctx, reader, 0)
		assert.Equal(t, AgeAdult, fs.Age)
		assert.Zero(t, reader.calls)
	})

	t.Run("should fall back when profile read fails", func(t *testing.T) {
		reader := &fakeProfiles{err: errors.New("db down")}
		fs := DefaultsFor(ctx, reader, 7)
		assert.Equal(t, ResolveDefaults(nil), fs)
	})

	t.Run("should use stored profile", func(t *testing.T) {
		reader := &fakeProfiles{profile: &Profile{Age: intPtr(8)}}
		fs := DefaultsFor(ctx, reader, 7)
		assert.Equal(t, AgeChild, fs.Age)
	})
}

func TestMergeFilters(t *testing.T) {
	base := FilterSet{Times: []string{"breakfast", "lunch"}, Age: AgeAdult, Diabetic: true}

	t.Run("should keep base without override", func(t *testing.T) {
		assert.Equal(t, base, MergeFilters(base, nil))
	})

	t.Run("should replace fields that are set", func(t *testing.T) {
		got := MergeFilters(base, &FilterOverride{
			Times:    []string{" Dinner ", "snacks", "dinner"},
			Age:      strPtr("Child"),
			Diabetic: boolPtr(false),
		})
		assert.Equal(t, []string{"dinner", "snacks"}, got.Times)
		assert.Equal(t, AgeChild, got.Age)
		assert.False(t, got.Diabetic)
	})

	t.Run("should keep base times when override filters to nothing", func(t *testing.T) {
		got := MergeFilters(base, &FilterOverride{Times: []string{"brunch", "supper"}})
		assert.Equal(t, base.Times, got.Times)
	})

	t.Run("should ignore unknown age", func(t *testing.T) {
		got := MergeFilters(base, &FilterOverride{Age: strPtr("teen")})
		assert.Equal(t, AgeAdult, got.Age)
	})

	t.Run("should not alias base times", func(t *testing.T) {
		got := MergeFilters(base, nil)
		got.Times[0] = "dinner"
		assert.Equal(t, "breakfast", base.Times[0])
	})
}
