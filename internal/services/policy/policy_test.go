package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

func TestAllow(t *testing.T) {
	p := New([]int{50, 30, 7})

	tests := []struct {
		name   string
		pref   models.NotificationPreference
		offset int
		want   bool
	}{
		{
			name:   "enabled with matching offset",
			pref:   models.NotificationPreference{EmailRemindersEnabled: true, ReminderOffsets: []int{50, 30, 7}},
			offset: 30,
			want:   true,
		},
		{
			name:   "enabled with non-member offset",
			pref:   models.NotificationPreference{EmailRemindersEnabled: true, ReminderOffsets: []int{50, 30, 7}},
			offset: 14,
			want:   false,
		},
		{
			name:   "reminders disabled",
			pref:   models.NotificationPreference{EmailRemindersEnabled: false, ReminderOffsets: []int{50, 30, 7}},
			offset: 50,
			want:   false,
		},
		{
			name:   "empty offsets fall back to defaults",
			pref:   models.NotificationPreference{EmailRemindersEnabled: true},
			offset: 7,
			want:   true,
		},
		{
			name:   "empty offsets and offset outside defaults",
			pref:   models.NotificationPreference{EmailRemindersEnabled: true},
			offset: 60,
			want:   false,
		},
		{
			name:   "custom offsets override defaults",
			pref:   models.NotificationPreference{EmailRemindersEnabled: true, ReminderOffsets: []int{60}},
			offset: 50,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Allow(tt.pref, tt.offset))
		})
	}
}
