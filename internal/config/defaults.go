package config

import "time"

// setDefaults sets sensible default values. The built-in facility
// registry covers the major Texas metros (Austin, Houston, Dallas-Fort
// Worth, San Antonio); a config file replaces it wholesale.
func (c *Config) setDefaults() {
	c.Server = ServerConfig{
		Port:           "8080",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	c.Engine = EngineConfig{
		DefaultBudgetUSD:   10.0,
		SupplementTollFree: true,
		RequestTimeout:     25 * time.Second,
	}

	c.Logging = LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	c.Security = SecurityConfig{
		RateLimiting: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Validation: ValidationConfig{
			Enabled:  true,
			SpecPath: "docs/openapi.yaml",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		},
	}

	c.Tolls = TollsConfig{Facilities: defaultFacilities()}
}

// defaultFacilities returns the built-in Texas toll facility registry.
// Patterns match the step-level road names routing providers report.
func defaultFacilities() []FacilityConfig {
	return []FacilityConfig{
		// Austin area
		{
			ID:             "183_toll",
			Description:    "183 Express/Toll (Austin)",
			Region:         "Austin",
			PricingMode:    "DYNAMIC",
			RatePerMile:    0.65,
			PeakMultiplier: 2.0,
			Patterns:       []string{`183.*toll`, `183.*express`, `us.*183.*toll`, `highway.*183.*toll`},
		},
		{
			ID:          "sh45_toll",
			Description: "SH-45 Toll (Austin)",
			Region:      "Austin",
			PricingMode: "FIXED",
			RatePerMile: 0.47,
			Patterns:    []string{`sh.*45`, `state.*highway.*45`, `45.*toll`, `highway.*45`},
		},
		{
			ID:             "mopac_express",
			Description:    "MoPac Express (Austin)",
			Region:         "Austin",
			PricingMode:    "DYNAMIC",
			RatePerMile:    0.95,
			PeakMultiplier: 2.5,
			Patterns:       []string{`mopac.*express`, `loop.*1.*express`, `mo[-\s]?pac.*toll`, `1.*loop.*express`},
		},
		{
			ID:          "sh130_toll",
			Description: "SH-130 Toll (Austin/San Antonio)",
			Region:      "Austin",
			PricingMode: "FIXED",
			RatePerMile: 0.17,
			Patterns:    []string{`sh.*130`, `state.*highway.*130`, `130.*toll`, `highway.*130`},
		},
		{
			ID:          "tx71_toll",
			Description: "TX-71 Toll (Austin)",
			Region:      "Austin",
			PricingMode: "FIXED",
			RatePerMile: 0.50,
			Patterns:    []string{`tx.*71.*toll`, `highway.*71.*toll`, `71.*express`},
		},
		{
			ID:          "manor_expressway",
			Description: "Manor Expressway (Austin)",
			Region:      "Austin",
			PricingMode: "FIXED",
			RatePerMile: 0.42,
			Patterns:    []string{`manor.*expressway`, `manor.*toll`, `us.*290.*toll`},
		},

		// Houston area (HCTRA)
		{
			ID:             "sam_houston_tollway",
			Description:    "Sam Houston Tollway / Beltway 8 (Houston)",
			Region:         "Houston",
			PricingMode:    "DYNAMIC",
			RatePerMile:    0.50,
			PeakMultiplier: 1.8,
			Patterns:       []string{`sam.*houston.*tollway`, `beltway.*8`, `belt.*way.*8`, `bw.*8`},
		},
		{
			ID:          "hardy_toll",
			Description: "Hardy Toll Road (Houston)",
			Region:      "Houston",
			PricingMode: "FIXED",
			RatePerMile: 0.55,
			Patterns:    []string{`hardy.*toll`, `hardy.*road`, `sam.*houston.*parkway`},
		},
		{
			ID:          "westpark_tollway",
			Description: "Westpark Tollway (Houston)",
			Region:      "Houston",
			PricingMode: "FIXED",
			RatePerMile: 0.60,
			Patterns:    []string{`westpark.*toll`, `west.*park.*toll`},
		},
		{
			ID:          "fort_bend_tollway",
			Description: "Fort Bend Tollway (Houston)",
			Region:      "Houston",
			PricingMode: "FIXED",
			RatePerMile: 0.45,
			Patterns:    []string{`fort.*bend.*toll`, `fb.*toll`},
		},
		{
			ID:          "grand_parkway",
			Description: "Grand Parkway SH-99 (Houston)",
			Region:      "Houston",
			PricingMode: "FIXED",
			RatePerMile: 0.40,
			Patterns:    []string{`grand.*parkway`, `sh.*99`, `99.*toll`, `state.*highway.*99`},
		},
		{
			ID:          "tomball_tollway",
			Description: "Tomball Tollway (Houston)",
			Region:      "Houston",
			PricingMode: "FIXED",
			RatePerMile: 0.48,
			Patterns:    []string{`tomball.*toll`, `249.*toll`},
		},

		// Dallas-Fort Worth area (NTTA)
		{
			ID:             "dallas_north_tollway",
			Description:    "Dallas North Tollway (DFW)",
			Region:         "Dallas-Fort Worth",
			PricingMode:    "DYNAMIC",
			RatePerMile:    0.70,
			PeakMultiplier: 1.9,
			Patterns:       []string{`dallas.*north.*tollway`, `dnt`, `north.*tollway.*dallas`},
		},
		{
			ID:          "pgbt",
			Description: "President George Bush Turnpike (DFW)",
			Region:      "Dallas-Fort Worth",
			PricingMode: "FIXED",
			RatePerMile: 0.65,
			Patterns:    []string{`george.*bush.*turnpike`, `pgbt`, `bush.*tollway`, `president.*bush`},
		},
		{
			ID:          "sam_rayburn_tollway",
			Description: "Sam Rayburn Tollway (DFW)",
			Region:      "Dallas-Fort Worth",
			PricingMode: "FIXED",
			RatePerMile: 0.60,
			Patterns:    []string{`sam.*rayburn.*toll`, `srt`, `rayburn.*toll`},
		},
		{
			ID:             "lbj_express",
			Description:    "LBJ Express (DFW)",
			Region:         "Dallas-Fort Worth",
			PricingMode:    "DYNAMIC",
			RatePerMile:    0.85,
			PeakMultiplier: 2.2,
			Patterns:       []string{`lbj.*express`, `lbj.*toll`, `635.*express`, `i[-\s]?635.*express`},
		},
		{
			ID:          "ntt_121",
			Description: "SH-121 Tollway (DFW)",
			Region:      "Dallas-Fort Worth",
			PricingMode: "FIXED",
			RatePerMile: 0.55,
			Patterns:    []string{`121.*toll`, `tollway.*121`, `highway.*121.*toll`},
		},
		{
			ID:          "chisholm_trail",
			Description: "Chisholm Trail Parkway (Fort Worth)",
			Region:      "Dallas-Fort Worth",
			PricingMode: "FIXED",
			RatePerMile: 0.58,
			Patterns:    []string{`chisholm.*trail`, `chisholm.*parkway`},
		},
		{
			ID:             "north_tarrant_express",
			Description:    "North Tarrant Express (Fort Worth)",
			Region:         "Dallas-Fort Worth",
			PricingMode:    "DYNAMIC",
			RatePerMile:    0.75,
			PeakMultiplier: 2.0,
			Patterns:       []string{`north.*tarrant.*express`, `nte`, `820.*express`},
		},

		// San Antonio area
		{
			ID:          "loop_1604_toll",
			Description: "Loop 1604 Toll (San Antonio)",
			Region:      "San Antonio",
			PricingMode: "FIXED",
			RatePerMile: 0.48,
			Patterns:    []string{`1604.*toll`, `loop.*1604.*toll`},
		},
		{
			ID:          "sh_130_south",
			Description: "SH-130 South Extension (San Antonio)",
			Region:      "San Antonio",
			PricingMode: "FIXED",
			RatePerMile: 0.17,
			Patterns:    []string{`sh.*130.*south`, `130.*toll.*south`},
		},
	}
}
