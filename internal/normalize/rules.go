package normalize

// Rule order is load-bearing: specific issuers come before the generic
// bank they share a name with ("RBL (Bajaj)" before "RBL Bank", OneCard
// before ICICI). Every canonical label must match its own rule first so
// that normalizing twice is a no-op.

var bankRules = &RuleSet{
	Kind:  KindBank,
	Empty: Unknown,
	Rules: []Rule{
		rule(`ONE ?CARD`, "OneCard"),
		rule(`RBL.*BAJAJ|BAJAJ.*RBL`, "RBL (Bajaj)"),
		rule(`\bRBL\b|RATNAKAR`, "RBL Bank"),
		rule(`BAJAJ`, "Bajaj Finserv"),
		rule(`HDFC`, "HDFC Bank"),
		rule(`ICICI`, "ICICI Bank"),
		rule(`\bSBI\b|STATE BANK OF INDIA`, "SBI Card"),
		rule(`\bAXIS\b`, "Axis Bank"),
		rule(`KOTAK`, "Kotak Mahindra Bank"),
		rule(`\bIDFC\b`, "IDFC First Bank"),
		rule(`INDUS ?IND`, "IndusInd Bank"),
		rule(`\bYES ?BANK\b`, "Yes Bank"),
		rule(`\bAU\b.*(SMALL|BANK)`, "AU Small Finance Bank"),
		rule(`AMERICAN EXPRESS|\bAMEX\b`, "American Express"),
		rule(`STANDARD CHARTERED|\bSCB\b`, "Standard Chartered"),
		rule(`\bCITI`, "Citibank"),
		rule(`\bHSBC\b`, "HSBC"),
		rule(`\bDBS\b`, "DBS Bank"),
		rule(`FEDERAL`, "Federal Bank"),
		rule(`PUNJAB NATIONAL|\bPNB\b`, "Punjab National Bank"),
		rule(`BANK OF BARODA|\bBOB\b`, "Bank of Baroda"),
		rule(`CANARA`, "Canara Bank"),
		rule(`UNION BANK`, "Union Bank of India"),
		rule(`TATA CAPITAL`, "Tata Capital"),
		rule(`ADITYA BIRLA`, "Aditya Birla Finance"),
		rule(`KREDIT ?BEE`, "KreditBee"),
		rule(`MONEY ?VIEW`, "MoneyView"),
		rule(`EARLY ?SALARY|\bFIBE\b`, "Fibe"),
		rule(`\bNAVI\b`, "Navi"),
		rule(`PAY ?SENSE`, "PaySense"),
		rule(`CASHE`, "CASHe"),
	},
}

var occupationRules = &RuleSet{
	Kind:  KindOccupation,
	Empty: Unknown,
	Rules: []Rule{
		rule(`UNEMPLOY|NOT WORKING|JOBLESS`, "Unemployed"),
		rule(`SELF[- ]?EMPLOY|FREELANC|CONSULTANT`, "Self-Employed"),
		rule(`BUS+INES+|SHOP|TRADER|PROPRIETOR|ENTREPRENEUR`, "Business"),
		rule(`GOVT|GOVERNMENT|\bPSU\b|RAILWAY|POLICE|ARMY|DEFEN[CS]E`, "Government Employee"),
		rule(`PROFESSIONAL|DOCTOR|LAWYER|CHARTERED ACCOUNTANT|\bCA\b|ARCHITECT`, "Professional"),
		rule(`SALAR|EMPLOYEE|PRIVATE|\bJOB\b|SERVICE|SOFTWARE|ENGINEER`, "Salaried"),
		rule(`STUDENT`, "Student"),
		rule(`RETIRED|PENSION`, "Retired"),
		rule(`HOUSE ?WIFE|HOME ?MAKER`, "Homemaker"),
	},
}

var statusRules = &RuleSet{
	Kind:  KindStatus,
	Empty: NoStatus,
	Rules: []Rule{
		rule(`NOT ?INTERESTED|^NI$`, "Not Interested"),
		rule(`INTERESTED`, "Interested"),
		rule(`CALL ?BACK|^CB$`, "Callback"),
		rule(`^RNR$|RINGING|NOT ANSWER|NO ANSWER|NOT PICK|^DNP$`, "Not Answering"),
		rule(`SWITCH(ED)? ?OFF|NOT REACHABLE|UNREACHABLE`, "Switched Off"),
		rule(`WRONG ?(NUMBER|NO)|INVALID NUMBER`, "Wrong Number"),
		rule(`CONVERT|CLOSED WON|ONBOARD`, "Converted"),
		rule(`FOLLOW ?UP|^FU$`, "Follow Up"),
		rule(`BUSY`, "Busy"),
		rule(`LANGUAGE`, "Language Barrier"),
		rule(`JUNK|SPAM|FAKE`, "Junk"),
	},
}

var cityRules = &RuleSet{
	Kind:      KindCity,
	Empty:     Unknown,
	TitleCase: true,
	Rules: []Rule{
		rule(`NAVI MUMBAI`, "Navi Mumbai"),
		rule(`MUMBAI|BOMBAY`, "Mumbai"),
		rule(`BANGALORE|BENGALURU|BANGLORE`, "Bengaluru"),
		rule(`GURGAON|GURUGRAM`, "Gurugram"),
		rule(`GREATER NOIDA`, "Greater Noida"),
		rule(`NOIDA`, "Noida"),
		rule(`DELHI`, "Delhi"),
		rule(`MADRAS|CHENNAI`, "Chennai"),
		rule(`CALCUTTA|KOLKATA`, "Kolkata"),
		rule(`POONA|PUNE`, "Pune"),
		rule(`HYDERABAD|SECUNDERABAD`, "Hyderabad"),
		rule(`BARODA|VADODARA`, "Vadodara"),
	},
}

var stateRules = &RuleSet{
	Kind:      KindState,
	Empty:     Unknown,
	TitleCase: true,
	Rules: []Rule{
		rule(`^MH$|MAHARASHTRA`, "Maharashtra"),
		rule(`^KA$|KARNATAKA`, "Karnataka"),
		rule(`^DL$|DELHI`, "Delhi"),
		rule(`^TN$|TAMIL ?NADU`, "Tamil Nadu"),
		rule(`^UP$|UTTAR PRADESH`, "Uttar Pradesh"),
		rule(`^WB$|WEST BENGAL`, "West Bengal"),
		rule(`^TS$|^TG$|TELANGANA`, "Telangana"),
		rule(`^AP$|ANDHRA`, "Andhra Pradesh"),
		rule(`^GJ$|GUJARAT`, "Gujarat"),
		rule(`^HR$|HARYANA`, "Haryana"),
		rule(`^RJ$|RAJASTHAN`, "Rajasthan"),
		rule(`^MP$|MADHYA PRADESH`, "Madhya Pradesh"),
		rule(`^KL$|KERALA`, "Kerala"),
	},
}
