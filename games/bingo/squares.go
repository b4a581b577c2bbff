/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package bingo

const (
	Title = "Welcome to the Python Holiday Bingo!"

	Intro = "Celebrate the end of 2025 by marking off your Python community achievements. " +
		"This is a community initiative in support of the Python Software Foundation (PSF). " +
		"Can you get a bingo? Share your card and consider donating to support our ecosystem!"
)

// Squares are the labels of the card, parallel to Board.
var Squares = [Cells]string{
	"Attended a Python local meetup",
	"Won a book in a raffle or event",
	"Put new stickers on my laptop",
	"Gave or attended a talk or workshop",
	"Became friends with Pythonists",

	"Visited a new city thanks to Python",
	"Donated to the PSF",
	"Contributed to open source",
	"Volunteered at a Python event",
	"Helped someone learn Python",

	"Learned a new Python library",
	"Got cool swag from a sponsor",
	"Love for Python",
	"Expressed public thanks to someone in the community",
	"Collaborated on a Python project",

	"Attended a Python conference",
	"Joined a Python community online",
	"Donated to a Python community initiative",
	"Asked my employer to sponsor a Python event",
	"Felt inspired by a talk",

	"Mentored or was mentored",
	"Asked a question at an event",
	"Supported a Python diversity initiative",
	"Tried a new Python tool",
	"Felt proud to be part of the Python community",
}
