package classroom

import "time"

// DateLayout is the calendar-date format of archived score records.
const DateLayout = "2006-01-02"

var NowFunc = time.Now // mockable

// Archive appends a snapshot of the student's current score to their history.
// Past entries are never mutated; repeated archives on the same calendar date
// each append a separate record.
func Archive(st *Student, asOf time.Time) {
	st.ScoreHistory = append(st.ScoreHistory, ScoreRecord{
		Date:  asOf.Format(DateLayout),
		Score: st.Score,
	})
}
