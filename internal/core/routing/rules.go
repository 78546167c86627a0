package routing

// Law codes referenced by the default routing table. They are the law_code values stored on
// corpus chunks.
const (
	LawBuildingCode      = "PD 1096"
	LawBuildingIRRRule7  = "Rule VII"
	LawBuildingIRRRule8  = "Rule VIII"
	LawFireCode          = "RA 9514"
	LawAccessibility     = "BP 344"
	LawMagnaCartaPWD     = "RA 7277"
	LawArchitectureAct   = "RA 9266"
	LawCivilEngineering  = "RA 544"
	LawPlumbing          = "RA 1378"
	LawElectrical        = "RA 7920"
	LawMechanical        = "RA 8495"
	LawSanitation        = "PD 856"
	LawSubdivision       = "PD 957"
	LawSocializedHousing = "BP 220"
	LawCondominium       = "RA 4726"
	LawEnvironmentalEIS  = "PD 1586"
	LawCleanWater        = "RA 9275"
	LawSolidWaste        = "RA 9003"
	LawCleanAir          = "RA 8749"
	LawWaterCode         = "PD 1067"
	LawEaseOfBusiness    = "RA 11032"
	LawLocalGovernment   = "RA 7160"
	LawDisasterRisk      = "RA 10121"
	LawCulturalHeritage  = "RA 10066"
	LawContractors       = "RA 4566"
	LawEnergyEfficiency  = "RA 11285"
	LawHousingAgency     = "RA 11201"
)

// Rule maps a lowercase keyword or phrase to the law codes that must be represented when the
// phrase occurs in a query.
type Rule struct {
	Pattern  string   `yaml:"pattern"`
	LawCodes []string `yaml:"law_codes"`
}

// DefaultRules is the built-in keyword table. Order matters only for Router.Prioritized:
// earlier rules win when the number of direct fetches is capped, so narrower topics come first.
var DefaultRules = []Rule{
	// Fire safety.
	{Pattern: "fire exit", LawCodes: []string{LawFireCode, LawBuildingCode}},
	{Pattern: "fire escape", LawCodes: []string{LawFireCode, LawBuildingCode}},
	{Pattern: "sprinkler", LawCodes: []string{LawFireCode}},
	{Pattern: "fire alarm", LawCodes: []string{LawFireCode}},
	{Pattern: "smoke detector", LawCodes: []string{LawFireCode}},
	{Pattern: "fire extinguisher", LawCodes: []string{LawFireCode}},
	{Pattern: "fire wall", LawCodes: []string{LawFireCode, LawBuildingCode}},
	{Pattern: "firewall", LawCodes: []string{LawFireCode, LawBuildingCode}},
	{Pattern: "fire rating", LawCodes: []string{LawFireCode, LawBuildingCode}},
	{Pattern: "fire resist", LawCodes: []string{LawFireCode, LawBuildingCode}},
	{Pattern: "fire safety", LawCodes: []string{LawFireCode}},
	{Pattern: "fsic", LawCodes: []string{LawFireCode}},
	{Pattern: "fire code", LawCodes: []string{LawFireCode}},
	{Pattern: "standpipe", LawCodes: []string{LawFireCode}},
	{Pattern: "hose cabinet", LawCodes: []string{LawFireCode}},
	{Pattern: "exit sign", LawCodes: []string{LawFireCode}},
	{Pattern: "emergency lighting", LawCodes: []string{LawFireCode, LawElectrical}},
	{Pattern: "means of egress", LawCodes: []string{LawFireCode, LawBuildingCode}},
	{Pattern: "egress", LawCodes: []string{LawFireCode}},
	{Pattern: "travel distance", LawCodes: []string{LawFireCode}},
	{Pattern: "occupant load", LawCodes: []string{LawFireCode, LawBuildingIRRRule7}},
	{Pattern: "fire", LawCodes: []string{LawFireCode}},

	// Accessibility.
	{Pattern: "ramp", LawCodes: []string{LawAccessibility}},
	{Pattern: "wheelchair", LawCodes: []string{LawAccessibility, LawMagnaCartaPWD}},
	{Pattern: "pwd", LawCodes: []string{LawAccessibility, LawMagnaCartaPWD}},
	{Pattern: "disab", LawCodes: []string{LawAccessibility, LawMagnaCartaPWD}},
	{Pattern: "accessib", LawCodes: []string{LawAccessibility}},
	{Pattern: "handrail", LawCodes: []string{LawAccessibility, LawBuildingCode}},
	{Pattern: "grab bar", LawCodes: []string{LawAccessibility}},

	// Occupancy, setbacks and site planning.
	{Pattern: "occupancy", LawCodes: []string{LawBuildingIRRRule7, LawBuildingCode}},
	{Pattern: "coffee shop", LawCodes: []string{LawBuildingCode, LawBuildingIRRRule7}},
	{Pattern: "cafe", LawCodes: []string{LawBuildingCode, LawBuildingIRRRule7}},
	{Pattern: "restaurant", LawCodes: []string{LawBuildingCode, LawBuildingIRRRule7, LawSanitation}},
	{Pattern: "carinderia", LawCodes: []string{LawBuildingCode, LawSanitation}},
	{Pattern: "school", LawCodes: []string{LawBuildingCode, LawBuildingIRRRule7}},
	{Pattern: "hospital", LawCodes: []string{LawBuildingCode, LawBuildingIRRRule7, LawSanitation}},
	{Pattern: "warehouse", LawCodes: []string{LawBuildingCode, LawBuildingIRRRule7}},
	{Pattern: "shopping mall", LawCodes: []string{LawBuildingCode, LawBuildingIRRRule7}},
	{Pattern: "residential", LawCodes: []string{LawBuildingCode, LawBuildingIRRRule7}},
	{Pattern: "setback", LawCodes: []string{LawBuildingIRRRule7, LawBuildingCode}},
	{Pattern: "firewall setback", LawCodes: []string{LawBuildingIRRRule7}},
	{Pattern: "floor area ratio", LawCodes: []string{LawBuildingIRRRule7}},
	{Pattern: "building height", LawCodes: []string{LawBuildingIRRRule7, LawBuildingCode}},
	{Pattern: "height limit", LawCodes: []string{LawBuildingIRRRule7}},
	{Pattern: "parking", LawCodes: []string{LawBuildingIRRRule7}},
	{Pattern: "open space", LawCodes: []string{LawBuildingIRRRule8, LawBuildingIRRRule7}},
	{Pattern: "easement", LawCodes: []string{LawBuildingIRRRule7, LawWaterCode}},
	{Pattern: "sidewalk", LawCodes: []string{LawBuildingIRRRule7}},
	{Pattern: "arcade", LawCodes: []string{LawBuildingIRRRule7}},

	// Light, ventilation and building elements.
	{Pattern: "ventilation", LawCodes: []string{LawBuildingIRRRule8, LawMechanical}},
	{Pattern: "window", LawCodes: []string{LawBuildingIRRRule8}},
	{Pattern: "ceiling height", LawCodes: []string{LawBuildingIRRRule8}},
	{Pattern: "room size", LawCodes: []string{LawBuildingIRRRule8}},
	{Pattern: "natural light", LawCodes: []string{LawBuildingIRRRule8}},
	{Pattern: "stair", LawCodes: []string{LawBuildingCode, LawFireCode}},
	{Pattern: "corridor", LawCodes: []string{LawBuildingCode, LawFireCode}},
	{Pattern: "structural", LawCodes: []string{LawBuildingCode, LawCivilEngineering}},
	{Pattern: "seismic", LawCodes: []string{LawBuildingCode, LawCivilEngineering, LawDisasterRisk}},
	{Pattern: "foundation", LawCodes: []string{LawBuildingCode, LawCivilEngineering}},

	// Permits and professional practice.
	{Pattern: "building permit", LawCodes: []string{LawBuildingCode, LawEaseOfBusiness}},
	{Pattern: "occupancy permit", LawCodes: []string{LawBuildingCode, LawEaseOfBusiness}},
	{Pattern: "permit", LawCodes: []string{LawBuildingCode}},
	{Pattern: "processing time", LawCodes: []string{LawEaseOfBusiness}},
	{Pattern: "zoning", LawCodes: []string{LawLocalGovernment, LawBuildingIRRRule7}},
	{Pattern: "locational clearance", LawCodes: []string{LawLocalGovernment}},
	{Pattern: "barangay", LawCodes: []string{LawLocalGovernment}},
	{Pattern: "architect", LawCodes: []string{LawArchitectureAct}},
	{Pattern: "signed and sealed", LawCodes: []string{LawArchitectureAct, LawCivilEngineering}},
	{Pattern: "civil engineer", LawCodes: []string{LawCivilEngineering}},
	{Pattern: "contractor", LawCodes: []string{LawContractors}},

	// Building services.
	{Pattern: "plumbing", LawCodes: []string{LawPlumbing, LawSanitation}},
	{Pattern: "septic", LawCodes: []string{LawPlumbing, LawSanitation, LawCleanWater}},
	{Pattern: "toilet", LawCodes: []string{LawPlumbing, LawSanitation}},
	{Pattern: "water closet", LawCodes: []string{LawPlumbing, LawSanitation}},
	{Pattern: "drainage", LawCodes: []string{LawPlumbing, LawCleanWater}},
	{Pattern: "electrical", LawCodes: []string{LawElectrical}},
	{Pattern: "wiring", LawCodes: []string{LawElectrical}},
	{Pattern: "generator set", LawCodes: []string{LawElectrical, LawMechanical}},
	{Pattern: "elevator", LawCodes: []string{LawMechanical, LawAccessibility}},
	{Pattern: "escalator", LawCodes: []string{LawMechanical}},
	{Pattern: "air condition", LawCodes: []string{LawMechanical}},
	{Pattern: "hvac", LawCodes: []string{LawMechanical}},
	{Pattern: "energy efficien", LawCodes: []string{LawEnergyEfficiency}},
	{Pattern: "solar", LawCodes: []string{LawEnergyEfficiency, LawElectrical}},

	// Housing and subdivisions.
	{Pattern: "subdivision", LawCodes: []string{LawSubdivision, LawSocializedHousing}},
	{Pattern: "socialized housing", LawCodes: []string{LawSocializedHousing, LawHousingAgency}},
	{Pattern: "economic housing", LawCodes: []string{LawSocializedHousing}},
	{Pattern: "condominium", LawCodes: []string{LawCondominium, LawSubdivision}},
	{Pattern: "condo", LawCodes: []string{LawCondominium}},
	{Pattern: "dhsud", LawCodes: []string{LawHousingAgency}},

	// Environment and heritage.
	{Pattern: "environmental compliance", LawCodes: []string{LawEnvironmentalEIS}},
	{Pattern: "ecc", LawCodes: []string{LawEnvironmentalEIS}},
	{Pattern: "wastewater", LawCodes: []string{LawCleanWater, LawSanitation}},
	{Pattern: "sewage", LawCodes: []string{LawCleanWater, LawSanitation}},
	{Pattern: "garbage", LawCodes: []string{LawSolidWaste}},
	{Pattern: "solid waste", LawCodes: []string{LawSolidWaste}},
	{Pattern: "materials recovery", LawCodes: []string{LawSolidWaste}},
	{Pattern: "emission", LawCodes: []string{LawCleanAir}},
	{Pattern: "riverbank", LawCodes: []string{LawWaterCode}},
	{Pattern: "waterway", LawCodes: []string{LawWaterCode}},
	{Pattern: "shoreline", LawCodes: []string{LawWaterCode}},
	{Pattern: "flood", LawCodes: []string{LawDisasterRisk, LawWaterCode}},
	{Pattern: "heritage", LawCodes: []string{LawCulturalHeritage}},
	{Pattern: "historical", LawCodes: []string{LawCulturalHeritage}},
}
