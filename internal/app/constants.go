package app

// MaxBotSteps bounds one RunBots call. A full 8-trick deal with three auctions
// needs well under this many bot actions; hitting it means a stuck schedule.
const MaxBotSteps = 512

// MaxNameLength caps display names set through UpdatePlayerName.
const MaxNameLength = 24
