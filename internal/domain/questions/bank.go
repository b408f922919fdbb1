package questions

// Entry pairs a country with its capital. The default bank below seeds the
// generator; tests and deployments can swap it via WithEntries.
type Entry struct {
	Country string
	Capital string
}

// defaultBank is a compact world-capitals dataset. Decoy options are drawn
// from the same bank, so it needs enough spread to avoid repeats.
var defaultBank = []Entry{
	{"France", "Paris"},
	{"Germany", "Berlin"},
	{"Italy", "Rome"},
	{"Spain", "Madrid"},
	{"Portugal", "Lisbon"},
	{"Netherlands", "Amsterdam"},
	{"Belgium", "Brussels"},
	{"Austria", "Vienna"},
	{"Switzerland", "Bern"},
	{"Greece", "Athens"},
	{"Norway", "Oslo"},
	{"Sweden", "Stockholm"},
	{"Finland", "Helsinki"},
	{"Denmark", "Copenhagen"},
	{"Iceland", "Reykjavik"},
	{"Ireland", "Dublin"},
	{"United Kingdom", "London"},
	{"Poland", "Warsaw"},
	{"Czech Republic", "Prague"},
	{"Hungary", "Budapest"},
	{"Romania", "Bucharest"},
	{"Bulgaria", "Sofia"},
	{"Croatia", "Zagreb"},
	{"Serbia", "Belgrade"},
	{"Ukraine", "Kyiv"},
	{"Russia", "Moscow"},
	{"Turkey", "Ankara"},
	{"Egypt", "Cairo"},
	{"Morocco", "Rabat"},
	{"Nigeria", "Abuja"},
	{"Kenya", "Nairobi"},
	{"Ethiopia", "Addis Ababa"},
	{"South Africa", "Pretoria"},
	{"Ghana", "Accra"},
	{"Senegal", "Dakar"},
	{"Tanzania", "Dodoma"},
	{"China", "Beijing"},
	{"Japan", "Tokyo"},
	{"South Korea", "Seoul"},
	{"India", "New Delhi"},
	{"Pakistan", "Islamabad"},
	{"Bangladesh", "Dhaka"},
	{"Thailand", "Bangkok"},
	{"Vietnam", "Hanoi"},
	{"Indonesia", "Jakarta"},
	{"Philippines", "Manila"},
	{"Malaysia", "Kuala Lumpur"},
	{"Saudi Arabia", "Riyadh"},
	{"Iran", "Tehran"},
	{"Iraq", "Baghdad"},
	{"Israel", "Jerusalem"},
	{"Australia", "Canberra"},
	{"New Zealand", "Wellington"},
	{"United States", "Washington, D.C."},
	{"Canada", "Ottawa"},
	{"Mexico", "Mexico City"},
	{"Cuba", "Havana"},
	{"Brazil", "Brasília"},
	{"Argentina", "Buenos Aires"},
	{"Chile", "Santiago"},
	{"Peru", "Lima"},
	{"Colombia", "Bogotá"},
	{"Venezuela", "Caracas"},
	{"Bolivia", "Sucre"},
	{"Uruguay", "Montevideo"},
	{"Ecuador", "Quito"},
}
