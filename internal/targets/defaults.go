package targets

import "github.com/JakeFAU/realtime-lead-scraper/internal/lead"

// Defaults returns the built-in target list: business directories, review
// sites and professional listings across common industries. LinkedIn pages
// need a login and are marked RequiresAuth.
func Defaults() []lead.Target {
	return []lead.Target{
		{URL: "https://www.yellowpages.com/search?search_terms=restaurants&geo_location_terms=New+York", Industry: "Hospitality", Location: "New York", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=technology+companies&geo_location_terms=San+Francisco", Industry: "Technology", Location: "San Francisco", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=healthcare&geo_location_terms=Los+Angeles", Industry: "Healthcare", Location: "Los Angeles", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=real+estate&geo_location_terms=Miami", Industry: "Real Estate", Location: "Miami", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=manufacturing&geo_location_terms=Chicago", Industry: "Manufacturing", Location: "Chicago", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=marketing+agencies&geo_location_terms=Austin", Industry: "Marketing", Location: "Austin", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=consulting&geo_location_terms=Boston", Industry: "Consulting", Location: "Boston", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=retail+stores&geo_location_terms=Seattle", Industry: "Retail", Location: "Seattle", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=construction&geo_location_terms=Dallas", Industry: "Construction", Location: "Dallas", SourceName: "YellowPages"},
		{URL: "https://www.yellowpages.com/search?search_terms=law+firms&geo_location_terms=Washington+DC", Industry: "Legal", Location: "Washington DC", SourceName: "YellowPages"},

		{URL: "https://www.yelp.com/search?find_desc=restaurants&find_loc=New+York,+NY", Industry: "Hospitality", Location: "New York", SourceName: "Yelp"},
		{URL: "https://www.yelp.com/search?find_desc=contractors&find_loc=Los+Angeles,+CA", Industry: "Construction", Location: "Los Angeles", SourceName: "Yelp"},
		{URL: "https://www.yelp.com/search?find_desc=healthcare&find_loc=Houston,+TX", Industry: "Healthcare", Location: "Houston", SourceName: "Yelp"},
		{URL: "https://www.yelp.com/search?find_desc=retail&find_loc=Chicago,+IL", Industry: "Retail", Location: "Chicago", SourceName: "Yelp"},
		{URL: "https://www.yelp.com/search?find_desc=real+estate&find_loc=Miami,+FL", Industry: "Real Estate", Location: "Miami", SourceName: "Yelp"},
		{URL: "https://www.yelp.com/search?find_desc=marketing&find_loc=San+Francisco,+CA", Industry: "Marketing", Location: "San Francisco", SourceName: "Yelp"},
		{URL: "https://www.yelp.com/search?find_desc=consulting&find_loc=Boston,+MA", Industry: "Consulting", Location: "Boston", SourceName: "Yelp"},
		{URL: "https://www.yelp.com/search?find_desc=transportation&find_loc=Atlanta,+GA", Industry: "Transportation", Location: "Atlanta", SourceName: "Yelp"},

		{URL: "https://www.linkedin.com/search/results/companies/?keywords=technology&location=San%20Francisco", Industry: "Technology", Location: "San Francisco", SourceName: "LinkedIn", RequiresAuth: true},
		{URL: "https://www.linkedin.com/search/results/companies/?keywords=healthcare&location=Boston", Industry: "Healthcare", Location: "Boston", SourceName: "LinkedIn", RequiresAuth: true},
		{URL: "https://www.linkedin.com/search/results/companies/?keywords=finance&location=New%20York", Industry: "Finance", Location: "New York", SourceName: "LinkedIn", RequiresAuth: true},

		{URL: "https://www.crunchbase.com/discover/organization.companies/field/categories/technology", Industry: "Technology", Location: "USA", SourceName: "Crunchbase"},
		{URL: "https://www.crunchbase.com/discover/organization.companies/field/categories/healthcare", Industry: "Healthcare", Location: "USA", SourceName: "Crunchbase"},
		{URL: "https://www.crunchbase.com/discover/organization.companies/field/categories/fintech", Industry: "Finance", Location: "USA", SourceName: "Crunchbase"},
		{URL: "https://www.crunchbase.com/discover/organization.companies/field/categories/e-commerce", Industry: "E-commerce", Location: "USA", SourceName: "Crunchbase"},

		{URL: "https://angel.co/companies?locations=2-San%20Francisco", Industry: "Technology", Location: "San Francisco", SourceName: "AngelList"},
		{URL: "https://angel.co/companies?locations=1-New%20York", Industry: "Technology", Location: "New York", SourceName: "AngelList"},

		{URL: "https://www.producthunt.com/topics/developer-tools", Industry: "Technology", Location: "Various", SourceName: "Product Hunt"},
		{URL: "https://www.producthunt.com/topics/saas", Industry: "Technology", Location: "Various", SourceName: "Product Hunt"},
		{URL: "https://www.producthunt.com/topics/marketing", Industry: "Marketing", Location: "Various", SourceName: "Product Hunt"},

		{URL: "https://www.healthgrades.com/find-a-doctor", Industry: "Healthcare", Location: "Various", SourceName: "HealthGrades"},

		{URL: "https://www.lawyers.com/find-a-lawyer/", Industry: "Legal", Location: "Various", SourceName: "Lawyers.com"},

		{URL: "https://www.martindale.com", Industry: "Legal", Location: "USA", SourceName: "Martindale"},

		{URL: "https://www.realtor.com/realestateagents", Industry: "Real Estate", Location: "Various", SourceName: "Realtor.com"},

		{URL: "https://www.zillow.com/professionals/", Industry: "Real Estate", Location: "Various", SourceName: "Zillow"},

		{URL: "https://www.houzz.com/professionals", Industry: "Construction", Location: "Various", SourceName: "Houzz"},

		{URL: "https://www.homeadvisor.com/c.Contractors", Industry: "Construction", Location: "Various", SourceName: "HomeAdvisor"},

		{URL: "https://www.g2.com/categories", Industry: "Technology", Location: "Various", SourceName: "G2"},

		{URL: "https://www.capterra.com", Industry: "Technology", Location: "Various", SourceName: "Capterra"},

		{URL: "https://clutch.co/agencies", Industry: "Marketing", Location: "Various", SourceName: "Clutch"},

		{URL: "https://www.thomasnet.com/browse/", Industry: "Manufacturing", Location: "USA", SourceName: "ThomasNet"},

		{URL: "https://www.tripadvisor.com/Restaurants", Industry: "Hospitality", Location: "Various", SourceName: "TripAdvisor"},

		{URL: "https://www.opentable.com/discover/restaurants", Industry: "Hospitality", Location: "Various", SourceName: "OpenTable"},

		{URL: "https://www.niche.com/k12/search/best-schools/", Industry: "Education", Location: "Various", SourceName: "Niche"},

		{URL: "https://www.investopedia.com/financial-advisor-directory/", Industry: "Finance", Location: "Various", SourceName: "Investopedia"},
	}
}
