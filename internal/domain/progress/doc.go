// Package progress models a learner's gamification profile: total XP, the
// level derived from it, the daily activity streak and the unlocked badges.
//
// Level is never stored independently of XP. Every XP change goes through
// Profile.AddXP, which recomputes the level with LevelFromXP.
package progress
