package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxtrack/flux/internal/store"
)

// DataQualityForRange scores the persisted daily logs between from and to
// (inclusive) against the newest TDEE estimate on record for the range.
func DataQualityForRange(ctx context.Context, st store.Store, from, to time.Time, p Params) (QualityReport, error) {
	fromKey := dayKey(from)
	toKey := dayKey(to)
	if fromKey > toKey {
		return QualityReport{}, fmt.Errorf("from date must be <= to date")
	}

	logs, err := st.ListDailyLogs(ctx, fromKey, toKey)
	if err != nil {
		return QualityReport{}, err
	}

	tdee, err := referenceTDEE(ctx, st, dayKey(to.AddDate(0, 0, 1)), p)
	if err != nil {
		return QualityReport{}, err
	}
	return CalculateDataQualityScore(logs, tdee), nil
}
