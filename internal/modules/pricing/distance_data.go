// README: Built-in distance tables from the Île-de-France depot.
package pricing

// departementKm is the one-way road distance from the depot to each
// metropolitan département, keyed by the first two digits of the postal code.
// Corsica (2A/2B) shares the "20" postal prefix.
var departementKm = map[string]int{
	"01": 450, "02": 130, "03": 320, "04": 740, "05": 680,
	"06": 930, "07": 600, "08": 230, "09": 760, "10": 170,
	"11": 780, "12": 620, "13": 770, "14": 240, "15": 530,
	"16": 450, "17": 470, "18": 240, "19": 480, "20": 1000,
	"21": 310, "22": 450, "23": 360, "24": 520, "25": 410,
	"26": 580, "27": 100, "28": 90, "29": 560, "30": 710,
	"31": 680, "32": 710, "33": 590, "34": 750, "35": 350,
	"36": 270, "37": 240, "38": 570, "39": 420, "40": 700,
	"41": 180, "42": 480, "43": 540, "44": 385, "45": 130,
	"46": 560, "47": 640, "48": 600, "49": 300, "50": 330,
	"51": 170, "52": 280, "53": 280, "54": 340, "55": 260,
	"56": 460, "57": 330, "58": 240, "59": 220, "60": 80,
	"61": 190, "62": 200, "63": 420, "64": 780, "65": 800,
	"66": 850, "67": 490, "68": 470, "69": 465, "70": 360,
	"71": 380, "72": 210, "73": 590, "74": 560, "75": 12,
	"76": 140, "77": 50, "78": 35, "79": 410, "80": 150,
	"81": 680, "82": 640, "83": 830, "84": 690, "85": 440,
	"86": 340, "87": 390, "88": 380, "89": 160, "90": 420,
	"91": 30, "92": 15, "93": 18, "94": 16, "95": 32,
}

// cityKm is checked in order. A name that contains another listed name
// (cormeilles-en-parisis / paris, boulogne-sur-mer / boulogne) must come first.
var cityKm = []CityDistance{
	{Name: "cormeilles-en-parisis", Km: 28},
	{Name: "boulogne-sur-mer", Km: 250},
	{Name: "boulogne-billancourt", Km: 15},
	{Name: "saint-germain-en-laye", Km: 28},
	{Name: "saint-denis", Km: 18},
	{Name: "saint-maur-des-fosses", Km: 20},
	{Name: "marne-la-vallee", Km: 35},
	{Name: "mantes-la-jolie", Km: 55},
	{Name: "paris", Km: 12},
	{Name: "boulogne", Km: 15},
	{Name: "nanterre", Km: 16},
	{Name: "montreuil", Km: 14},
	{Name: "vincennes", Km: 12},
	{Name: "creteil", Km: 18},
	{Name: "argenteuil", Km: 22},
	{Name: "versailles", Km: 30},
	{Name: "evry", Km: 32},
	{Name: "cergy", Km: 38},
	{Name: "melun", Km: 48},
	{Name: "meaux", Km: 50},
	{Name: "fontainebleau", Km: 65},
	{Name: "chartres", Km: 90},
	{Name: "orleans", Km: 130},
	{Name: "rouen", Km: 135},
	{Name: "amiens", Km: 145},
	{Name: "reims", Km: 145},
	{Name: "lille", Km: 225},
	{Name: "rennes", Km: 350},
	{Name: "nantes", Km: 385},
	{Name: "lyon", Km: 465},
	{Name: "strasbourg", Km: 490},
	{Name: "bordeaux", Km: 585},
	{Name: "toulouse", Km: 680},
	{Name: "marseille", Km: 775},
	{Name: "nice", Km: 930},
}
